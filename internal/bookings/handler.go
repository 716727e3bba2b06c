package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/royalresponse/platform/internal/api/respond"
	"github.com/royalresponse/platform/internal/tenancy"
	"github.com/royalresponse/platform/pkg/logging"
)

// Handler serves the dashboard surface for bookings.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new bookings handler
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
	r.Get("/availability", h.Availability)
	r.Get("/{bookingID}", h.Get)
	r.Patch("/{bookingID}", h.Update)
	r.Delete("/{bookingID}", h.Delete)
	r.Post("/{bookingID}/confirm", h.Confirm)
	r.Post("/{bookingID}/complete", h.Complete)
	r.Post("/{bookingID}/no-show", h.MarkNoShow)
	r.Post("/{bookingID}/cancel", h.Cancel)
	return r
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrBookingNotFound):
		return respond.NotFound("Booking not found")
	case errors.Is(err, ErrSlotUnavailable):
		return respond.Conflict("That time slot is unavailable, please choose another time")
	case errors.Is(err, ErrMissingProperty),
		errors.Is(err, ErrMissingStart),
		errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrMissingCustomerName),
		errors.Is(err, ErrMissingCustomerPhone),
		errors.Is(err, ErrInvalidTransition):
		return respond.Validation(err.Error())
	default:
		return err
	}
}

func agentID(r *http.Request) (string, bool) {
	return tenancy.AgentIDFromContext(r.Context())
}

// List handles GET /api/v1/bookings with query-param filtering.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Status: q.Get("status"),
		Type:   q.Get("type"),
	}
	if v, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		filter.From = v
	}
	if v, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		filter.To = v
	}

	out, err := h.svc.List(r.Context(), agent, filter)
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err, "agent_id", agent)
		respond.Error(w, err)
		return
	}
	respond.List(w, out, len(out))
}

// Availability handles GET /api/v1/bookings/availability?date=2026-03-14
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		respond.Error(w, respond.Validation("date must be YYYY-MM-DD"))
		return
	}

	avail, err := h.svc.AvailabilityFor(r.Context(), agent, date)
	if err != nil {
		h.logger.Error("failed to compute availability", "error", err, "agent_id", agent)
		respond.Error(w, err)
		return
	}
	respond.OK(w, avail)
}

// Get handles GET /api/v1/bookings/{bookingID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}
	b, err := h.svc.Get(r.Context(), agent, chi.URLParam(r, "bookingID"))
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OK(w, b)
}

// Create handles POST /api/v1/bookings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	b, err := h.svc.Create(r.Context(), agent, &req)
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.Created(w, "Booking created successfully", b)
}

// Update handles PATCH /api/v1/bookings/{bookingID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	var patch UpdateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, respond.Validation("Invalid request body"))
		return
	}

	b, err := h.svc.Update(r.Context(), agent, chi.URLParam(r, "bookingID"), &patch)
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OKMessage(w, "Booking updated successfully", b)
}

func (h *Handler) transitionHandler(do func(r *http.Request, agent, id string) (*Booking, error), message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, ok := agentID(r)
		if !ok {
			respond.Error(w, respond.Unauthorized("missing tenant context"))
			return
		}
		b, err := do(r, agent, chi.URLParam(r, "bookingID"))
		if err != nil {
			respond.Error(w, mapErr(err))
			return
		}
		respond.OKMessage(w, message, b)
	}
}

// Confirm handles POST /api/v1/bookings/{bookingID}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, agent, id string) (*Booking, error) {
		return h.svc.Confirm(r.Context(), agent, id)
	}, "Booking confirmed")(w, r)
}

// Complete handles POST /api/v1/bookings/{bookingID}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, agent, id string) (*Booking, error) {
		return h.svc.Complete(r.Context(), agent, id)
	}, "Booking completed")(w, r)
}

// MarkNoShow handles POST /api/v1/bookings/{bookingID}/no-show
func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.transitionHandler(func(r *http.Request, agent, id string) (*Booking, error) {
		return h.svc.MarkNoShow(r.Context(), agent, id)
	}, "Booking marked as no-show")(w, r)
}

// Cancel handles POST /api/v1/bookings/{bookingID}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}

	var req CancelRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	b, err := h.svc.Cancel(r.Context(), agent, chi.URLParam(r, "bookingID"), req)
	if err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OKMessage(w, "Booking cancelled", b)
}

// Delete handles DELETE /api/v1/bookings/{bookingID} (soft delete)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	agent, ok := agentID(r)
	if !ok {
		respond.Error(w, respond.Unauthorized("missing tenant context"))
		return
	}
	if err := h.svc.Delete(r.Context(), agent, chi.URLParam(r, "bookingID")); err != nil {
		respond.Error(w, mapErr(err))
		return
	}
	respond.OKMessage(w, "Booking deleted successfully", nil)
}
