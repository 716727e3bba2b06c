package properties

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

// Handler serves the dashboard CRUD surface for listings.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a new properties handler
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes mounts the handler under an authenticated tenant router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{propertyID}", h.Get)
	r.Patch("/{propertyID}", h.Update)
	r.Delete("/{propertyID}", h.Delete)
	return r
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrPropertyNotFound):
		return respond.NotFound("Property not found")
	case errors.Is(err, ErrMissingExternalRef),
		errors.Is(err, ErrMissingTitle),
		errors.Is(err, ErrMissingAddress),
		errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrInvalidBedrooms),
		errors.Is(err, ErrInvalidPrice):
		return respond.Validation(err.Error())
	default:
		return err
	}
}

func agentID(r *http.Request) (string, bool) {
	return tenancy.AgentIDFromContext(r.Context())
}

// List handles GET /api/v1/properties with query-param filtering.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	q := r.URL.Query()
	filter := SearchFilter{
		Status:   q.Get("status"),
		Type:     q.Get("type"),
		Location: q.Get("location"),
	}
	if v, err := strconv.Atoi(q.Get("bedrooms")); err == nil {
		filter.Bedrooms = v
	}
	if v, err := strconv.ParseInt(q.Get("min_price"), 10, 64); err == nil {
		filter.MinPrice = v
	}
	if v, err := strconv.ParseInt(q.Get("max_price"), 10, 64); err == nil {
		filter.MaxPrice = v
	}

	out, err := h.repo.Search(r.Context(), agent, filter)
	if err != nil {
		h.logger.Error("failed to list properties", "error", err, "agent_id", agent)
		respond.Error(w, err)
		return
	}
	respond.List(w, out, len(out))
}

// Get handles GET /api/v1/properties/{propertyID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}
	p, err := h.repo.GetForAgent(r.Context(), agent, chi.URLParam(r, "propertyID"))
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OK(w, p)
}

// Create handles POST /api/v1/properties
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	p, err := h.repo.Create(r.Context(), agent, &req)
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}

	h.logger.Info("property listed", "property_id", p.ID, "agent_id", agent, "ref", p.ExternalRef)
	respond.Created(w, "Property created successfully", p)
}

// Update handles PATCH /api/v1/properties/{propertyID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	var patch UpdatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	p, err := h.repo.Update(r.Context(), agent, chi.URLParam(r, "propertyID"), &patch)
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OKMessage(w, "Property updated successfully", p)
}

// Delete handles DELETE /api/v1/properties/{propertyID} (soft delete)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}
	if err := h.repo.SoftDelete(r.Context(), agent, chi.URLParam(r, "propertyID")); err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OKMessage(w, "Property deleted successfully", nil)
}
