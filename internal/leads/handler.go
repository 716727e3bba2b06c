package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/royalresponse/platform/internal/api/respond"
	"github.com/royalresponse/platform/internal/tenancy"
	"github.com/royalresponse/platform/pkg/logging"
)

// Handler serves the dashboard surface for leads.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the handler under an authenticated tenant router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.Stats)
	r.Get("/{leadID}", h.Get)
	r.Patch("/{leadID}", h.Update)
	r.Delete("/{leadID}", h.Delete)
	r.Post("/{leadID}/notes", h.AddNote)
	return r
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrLeadNotFound):
		return respond.NotFound("Lead not found")
	case errors.Is(err, ErrMissingFirstName),
		errors.Is(err, ErrMissingPhone),
		errors.Is(err, ErrInvalidChannel),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrMissingNote):
		return respond.Validation(err.Error())
	default:
		return err
	}
}

func agentID(r *http.Request) (string, bool) {
	return tenancy.AgentIDFromContext(r.Context())
}

// List handles GET /api/v1/leads with query-param filtering.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}
	if v, err := strconv.Atoi(q.Get("min_score")); err == nil && v > 0 {
		filter.MinScore = v
	}

	out, err := h.svc.List(r.Context(), agent, filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "agent_id", agent)
		respond.Error(w, err)
		return
	}
	respond.List(w, out, len(out))
}

// Stats handles GET /api/v1/leads/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}
	stats, err := h.svc.Stats(r.Context(), agent)
	if err != nil {
		h.logger.Error("failed to compute lead stats", "error", err, "agent_id", agent)
		respond.Error(w, err)
		return
	}
	respond.OK(w, stats)
}

// Get handles GET /api/v1/leads/{leadID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}
	lead, err := h.svc.Get(r.Context(), agent, chi.URLParam(r, "leadID"))
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OK(w, lead)
}

// Create handles POST /api/v1/leads
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	lead, err := h.svc.Create(r.Context(), agent, &req)
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.Created(w, "Lead created successfully", lead)
}

// Update handles PATCH /api/v1/leads/{leadID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	var patch UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	lead, err := h.svc.Update(r.Context(), agent, chi.URLParam(r, "leadID"), &patch)
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OKMessage(w, "Lead updated successfully", lead)
}

// Delete handles DELETE /api/v1/leads/{leadID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}
	if err := h.svc.Delete(r.Context(), agent, chi.URLParam(r, "leadID")); err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OKMessage(w, "Lead deleted successfully", nil)
}

type addNoteRequest struct {
	Text string `json:"text"`
}

// AddNote handles POST /api/v1/leads/{leadID}/notes
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	var req addNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	lead, err := h.svc.AddNote(r.Context(), agent, chi.URLParam(r, "leadID"), req.Text)
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OKMessage(w, "Note added", lead)
}
