package prospects

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler serves the operator-side sales pipeline. It sits behind the
// admin JWT, not tenant API keys.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes mounts the handler under the admin router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{prospectID}", h.Get)
	r.Put("/{prospectID}", h.Upsert)
	r.Delete("/{prospectID}", h.Delete)
	r.Post("/{prospectID}/events", h.AddEvent)
	return r
}

// List handles GET /admin/prospects
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	prospects, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"lastUpdated": time.Now().UTC(),
		"prospects":   prospects,
	})
}

// Get handles GET /admin/prospects/{prospectID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Get(r.Context(), chi.URLParam(r, "prospectID"))
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	if p == nil {
		http.Error(w, "not found", 404)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// Upsert handles PUT /admin/prospects/{prospectID}. The fit score is
// recomputed server-side on every write; clients cannot set it.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "prospectID")

	var p Prospect
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid json: "+err.Error(), 400)
		return
	}
	p.ID = id
	if p.Status == "" {
		p.Status = StatusNew
	}
	if !validStatuses[p.Status] {
		http.Error(w, "invalid status: "+p.Status, 400)
		return
	}
	if p.PainPoints == nil {
		p.PainPoints = []string{}
	}
	if p.ChannelsInterested == nil {
		p.ChannelsInterested = []string{}
	}
	p.FitScore = ComputeFitScore(&p)

	if err := h.repo.Upsert(r.Context(), &p); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// Delete handles DELETE /admin/prospects/{prospectID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "prospectID")); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddEvent handles POST /admin/prospects/{prospectID}/events
func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var e Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "invalid json: "+err.Error(), 400)
		return
	}
	e.ProspectID = chi.URLParam(r, "prospectID")
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}

	if err := h.repo.AddEvent(r.Context(), &e); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(e)
}
