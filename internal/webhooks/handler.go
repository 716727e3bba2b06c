package webhooks

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/royalresponse/platform/internal/api/respond"
	"github.com/royalresponse/platform/internal/bookings"
	"github.com/royalresponse/platform/internal/conversations"
	"github.com/royalresponse/platform/internal/leads"
	"github.com/royalresponse/platform/internal/observability/metrics"
	"github.com/royalresponse/platform/internal/properties"
	"github.com/royalresponse/platform/internal/tenancy"
	"github.com/royalresponse/platform/pkg/logging"
)

// PropertyFinder is the slice of the properties repository the chatbot
// surface needs.
type PropertyFinder interface {
	Search(ctx context.Context, agentID string, f properties.SearchFilter) ([]*properties.Property, error)
	GetAvailableForAgent(ctx context.Context, agentID, id string) (*properties.Property, error)
	IncrementMetric(ctx context.Context, agentID, id, metric string) error
}

// Handler serves the chatbot webhook surface. Every endpoint runs behind
// API-key auth, so the tenant is already resolved by the time a request
// lands here.
type Handler struct {
	leads         *leads.Service
	bookings      *bookings.Service
	properties    PropertyFinder
	conversations *conversations.Service
	searchLimit   int
	logger        *logging.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(leadSvc *leads.Service, bookingSvc *bookings.Service, props PropertyFinder, convSvc *conversations.Service, searchLimit int, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if searchLimit <= 0 {
		searchLimit = 5
	}
	return &Handler{
		leads:         leadSvc,
		bookings:      bookingSvc,
		properties:    props,
		conversations: convSvc,
		searchLimit:   searchLimit,
		logger:        logger,
	}
}

// Routes mounts the webhook endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/lead", h.CaptureLead)
	r.Post("/search-properties", h.SearchProperties)
	r.Get("/property/{propertyID}", h.PropertyDetails)
	r.Post("/booking", h.CreateBooking)
	r.Post("/check-availability", h.CheckAvailability)
	r.Post("/conversation", h.LogConversation)
	return r
}

func observe(endpoint string, err error) {
	status := "ok"
	switch {
	case errors.Is(err, bookings.ErrSlotUnavailable):
		status = "conflict"
	case err != nil:
		status = "error"
	}
	metrics.WebhookRequests.WithLabelValues(endpoint, status).Inc()
}

func agentID(r *http.Request) (string, bool) {
	return tenancy.AgentIDFromContext(r.Context())
}

// CaptureLead handles POST /webhooks/lead
func (h *Handler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	req, err := normalizeLead(r.Body)
	if err != nil {
		observe("lead", err)
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	lead, err := h.leads.Create(r.Context(), agent, req)
	observe("lead", err)
	if err != nil {
		switch {
		case errors.Is(err, leads.ErrMissingFirstName),
			errors.Is(err, leads.ErrMissingPhone),
			errors.Is(err, leads.ErrInvalidChannel):
			respond.Error(w, respond.Validation(err.Error()))
		default:
			h.logger.Error("webhook lead capture failed", "error", err, "agent_id", agent)
			respond.Error(w, err)
		}
		return
	}

	metrics.LeadScores.Observe(float64(lead.Score.Value))
	if lead.PropertyInterest.PropertyID != "" {
		if err := h.properties.IncrementMetric(r.Context(), agent, lead.PropertyInterest.PropertyID, "enquiries"); err != nil {
			h.logger.Warn("failed to bump enquiry counter", "error", err, "property_id", lead.PropertyInterest.PropertyID)
		}
	}

	respond.Created(w, "Lead captured", map[string]any{
		"lead_id":  lead.ID,
		"score":    lead.Score.Value,
		"priority": lead.Priority,
		"status":   lead.Status,
	})
}

// chatbotProperty is the trimmed, pre-formatted listing shape chatbot
// flows interpolate directly into replies.
type chatbotProperty struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Title     string `json:"title"`
	Address   string `json:"address"`
	Price     string `json:"price"`
	Type      string `json:"type"`
	Bedrooms  int    `json:"bedrooms"`
	Bathrooms int    `json:"bathrooms"`
	Features  string `json:"features"`
	Status    string `json:"status"`
}

func formatForChatbot(p *properties.Property) chatbotProperty {
	features := p.Features
	if len(features) > 3 {
		features = features[:3]
	}
	return chatbotProperty{
		ID:        p.ID,
		Reference: p.ExternalRef,
		Title:     p.Title,
		Address:   p.Address.Summary(),
		Price:     p.Price.Display(),
		Type:      p.Type,
		Bedrooms:  p.Bedrooms,
		Bathrooms: p.Bathrooms,
		Features:  strings.Join(features, ", "),
		Status:    p.Status,
	}
}

// SearchProperties handles POST /webhooks/search-properties
func (h *Handler) SearchProperties(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	req, err := normalizeSearch(r.Body)
	if err != nil {
		observe("search-properties", err)
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	found, err := h.properties.Search(r.Context(), agent, properties.SearchFilter{
		Status:   properties.StatusAvailable,
		Type:     req.Type,
		Bedrooms: req.Bedrooms,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Location: req.Location,
		Limit:    h.searchLimit,
	})
	observe("search-properties", err)
	if err != nil {
		h.logger.Error("webhook property search failed", "error", err, "agent_id", agent)
		respond.Error(w, err)
		return
	}

	out := make([]chatbotProperty, 0, len(found))
	for _, p := range found {
		out = append(out, formatForChatbot(p))
	}
	respond.List(w, out, len(out))
}

// PropertyDetails handles GET /webhooks/property/{propertyID}
func (h *Handler) PropertyDetails(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	id := chi.URLParam(r, "propertyID")
	p, err := h.properties.GetAvailableForAgent(r.Context(), agent, id)
	observe("property-details", err)
	if err != nil {
		if errors.Is(err, properties.ErrPropertyNotFound) {
			respond.Error(w, respond.NotFound("Property not found"))
			return
		}
		h.logger.Error("webhook property fetch failed", "error", err, "agent_id", agent)
		respond.Error(w, err)
		return
	}

	if err := h.properties.IncrementMetric(r.Context(), agent, id, "views"); err != nil {
		h.logger.Warn("failed to bump view counter", "error", err, "property_id", id)
	}

	detail := struct {
		chatbotProperty
		Description string `json:"description"`
		EPCRating   string `json:"epc_rating,omitempty"`
	}{formatForChatbot(p), p.Description, p.EPCRating}
	respond.OK(w, detail)
}

// CreateBooking handles POST /webhooks/booking
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	req, err := normalizeBooking(r.Body)
	if err != nil {
		observe("booking", err)
		respond.Error(w, respond.Validation("A property, date, and time are required to book a viewing"))
		return
	}

	b, err := h.bookings.Create(r.Context(), agent, req)
	observe("booking", err)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrSlotUnavailable):
			respond.Error(w, respond.Conflict("That time slot is unavailable, please choose another time"))
		case errors.Is(err, bookings.ErrMissingProperty),
			errors.Is(err, bookings.ErrMissingStart),
			errors.Is(err, bookings.ErrInvalidType),
			errors.Is(err, bookings.ErrInvalidDuration),
			errors.Is(err, bookings.ErrMissingCustomerName),
			errors.Is(err, bookings.ErrMissingCustomerPhone):
			respond.Error(w, respond.Validation(err.Error()))
		default:
			h.logger.Error("webhook booking failed", "error", err, "agent_id", agent)
			respond.Error(w, err)
		}
		return
	}

	if err := h.properties.IncrementMetric(r.Context(), agent, b.PropertyID, "viewings"); err != nil {
		h.logger.Warn("failed to bump viewing counter", "error", err, "property_id", b.PropertyID)
	}

	respond.Created(w, "Booking confirmed", map[string]any{
		"booking_id":   b.ID,
		"scheduled_at": b.ScheduledAt,
		"end_at":       b.EndAt,
		"status":       b.Status,
	})
}

// CheckAvailability handles POST /webhooks/check-availability
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	date, err := normalizeDate(r.Body)
	if err != nil {
		observe("check-availability", err)
		respond.Error(w, respond.Validation("A date is required, formatted YYYY-MM-DD"))
		return
	}

	avail, err := h.bookings.AvailabilityFor(r.Context(), agent, date)
	observe("check-availability", err)
	if err != nil {
		h.logger.Error("webhook availability failed", "error", err, "agent_id", agent)
		respond.Error(w, err)
		return
	}
	respond.OK(w, avail)
}

// LogConversation handles POST /webhooks/conversation
func (h *Handler) LogConversation(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	req, err := normalizeConversation(r.Body)
	if err != nil {
		observe("conversation", err)
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	c, err := h.conversations.Log(r.Context(), agent, req)
	observe("conversation", err)
	if err != nil {
		switch {
		case errors.Is(err, conversations.ErrInvalidChannel),
			errors.Is(err, conversations.ErrInvalidOutcome):
			respond.Error(w, respond.Validation(err.Error()))
		default:
			h.logger.Error("webhook conversation log failed", "error", err, "agent_id", agent)
			respond.Error(w, err)
		}
		return
	}

	respond.Created(w, "Conversation logged", map[string]any{
		"conversation_id": c.ID,
		"messages":        c.Counts.Total,
	})
}
