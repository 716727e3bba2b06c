package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/royalresponse/platform/internal/agents"
	"github.com/royalresponse/platform/internal/api/respond"
	"github.com/royalresponse/platform/internal/bookings"
	httpmiddleware "github.com/royalresponse/platform/internal/http/middleware"
	"github.com/royalresponse/platform/internal/leads"
	"github.com/royalresponse/platform/internal/properties"
	"github.com/royalresponse/platform/internal/prospects"
	"github.com/royalresponse/platform/internal/webhooks"
	"github.com/royalresponse/platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	AgentRepo *agents.Repository

	PropertiesHandler *properties.Handler
	LeadsHandler      *leads.Handler
	BookingsHandler   *bookings.Handler
	WebhooksHandler   *webhooks.Handler
	AgentsHandler     *agents.Handler
	ProspectsHandler  *prospects.Handler

	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitPerSec    float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSec > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}

	// Public endpoints
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.OK(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Unauthenticated tenant identification for inbound calls/messages.
	r.With(httpmiddleware.IdentifyByPhone(cfg.AgentRepo, cfg.Logger)).
		Post("/webhooks/identify", identifiedAgent)

	// Chatbot webhook surface, API-key authenticated.
	r.Group(func(hooks chi.Router) {
		hooks.Use(httpmiddleware.APIKeyAuth(cfg.AgentRepo, cfg.Logger))
		hooks.Mount("/webhooks", cfg.WebhooksHandler.Routes())
	})

	// Dashboard CRUD surface, API-key authenticated.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(httpmiddleware.APIKeyAuth(cfg.AgentRepo, cfg.Logger))
		api.Mount("/properties", cfg.PropertiesHandler.Routes())
		api.Mount("/leads", cfg.LeadsHandler.Routes())
		api.Mount("/bookings", cfg.BookingsHandler.Routes())
	})

	// Operator surface, admin JWT authenticated.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
		admin.Mount("/agents", cfg.AgentsHandler.Routes())
		if cfg.ProspectsHandler != nil {
			admin.Mount("/prospects", cfg.ProspectsHandler.Routes())
		}
	})

	return r
}

// identifiedAgent returns the tenant the identification middleware
// resolved from the inbound phone number.
func identifiedAgent(w http.ResponseWriter, r *http.Request) {
	agent, ok := httpmiddleware.AgentFromContext(r.Context())
	if !ok {
		respond.Error(w, respond.NotFound("No agency matches that number"))
		return
	}
	respond.OK(w, map[string]string{
		"agent_id": agent.ID,
		"company":  agent.CompanyName,
	})
}
