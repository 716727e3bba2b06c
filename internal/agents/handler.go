package agents

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/royalresponse/platform/internal/api/respond"
	"github.com/royalresponse/platform/pkg/logging"
)

// Handler exposes operator endpoints for tenant onboarding and management.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a new agents handler
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes mounts the handler under an operator-authenticated router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{agentID}", h.Get)
	r.Patch("/{agentID}", h.Update)
	r.Delete("/{agentID}", h.Delete)
	r.Post("/{agentID}/regenerate-key", h.RegenerateKey)
	r.Post("/{agentID}/reset-usage", h.ResetUsage)
	return r
}

func (h *Handler) mapErr(err error) error {
	switch {
	case errors.Is(err, ErrAgentNotFound):
		return respond.NotFound("Agent not found")
	case errors.Is(err, ErrMissingCompanyName),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrMissingPhone):
		return respond.Validation(err.Error())
	default:
		return err
	}
}

// List handles GET /admin/agents
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list agents", "error", err)
		respond.Error(w, err)
		return
	}
	respond.List(w, out, len(out))
}

// Get handles GET /admin/agents/{agentID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	agent, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "agentID"))
	if err != nil {
		respond.Error(w, h.mapErr(err))
		return
	}
	respond.OK(w, agent)
}

type createAgentResponse struct {
	Agent *Agent `json:"agent"`
	// APIKey is returned exactly once, at onboarding.
	APIKey string `json:"api_key"`
}

// Create handles POST /admin/agents
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	agent, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create agent", "error", err)
		respond.Error(w, h.mapErr(err))
		return
	}

	h.logger.Info("agent onboarded", "agent_id", agent.ID, "company", agent.CompanyName)
	respond.Created(w, "Agent created successfully", createAgentResponse{Agent: agent, APIKey: agent.APIKey})
}

// Update handles PATCH /admin/agents/{agentID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	agent, err := h.repo.Update(r.Context(), chi.URLParam(r, "agentID"), &patch)
	if err != nil {
		respond.Error(w, h.mapErr(err))
		return
	}
	respond.OKMessage(w, "Agent updated successfully", agent)
}

// Delete handles DELETE /admin/agents/{agentID} (soft delete)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.SoftDelete(r.Context(), chi.URLParam(r, "agentID")); err != nil {
		respond.Error(w, h.mapErr(err))
		return
	}
	respond.OKMessage(w, "Agent deleted successfully", nil)
}

// RegenerateKey handles POST /admin/agents/{agentID}/regenerate-key
func (h *Handler) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	key, err := h.repo.RegenerateAPIKey(r.Context(), agentID)
	if err != nil {
		respond.Error(w, h.mapErr(err))
		return
	}
	h.logger.Info("api key rotated", "agent_id", agentID)
	respond.OKMessage(w, "API key regenerated", map[string]string{"api_key": key})
}

// ResetUsage handles POST /admin/agents/{agentID}/reset-usage
func (h *Handler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.ResetMonthlyUsage(r.Context(), chi.URLParam(r, "agentID")); err != nil {
		respond.Error(w, h.mapErr(err))
		return
	}
	respond.OKMessage(w, "Monthly usage reset", nil)
}
