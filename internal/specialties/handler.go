package specialties

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/healthdesk/scheduler/pkg/logging"
)

// Handler handles HTTP requests for specialties.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new specialties handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /specialties requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sp := &Specialty{Name: req.Name, Color: req.Color}
	if err := h.repo.Create(r.Context(), sp); err != nil {
		h.logger.Error("failed to create specialty", "error", err)
		http.Error(w, "failed to create specialty", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sp)
}

// List handles GET /specialties requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list specialties", "error", err)
		http.Error(w, "failed to list specialties", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"specialties": items, "count": len(items)})
}

// Get handles GET /specialties/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sp, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "specialty not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load specialty", "error", err)
		http.Error(w, "failed to load specialty", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sp)
}

// Delete handles DELETE /specialties/{id} requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "specialty not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete specialty", "error", err)
		http.Error(w, "failed to delete specialty", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
