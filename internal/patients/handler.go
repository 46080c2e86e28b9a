package patients

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/pkg/logging"
)

// Handler handles HTTP requests for patients.
type Handler struct {
	repo   Repository
	apts   *appointments.Service
	logger *logging.Logger
}

// NewHandler creates a new patients handler. apts may be nil when the
// appointment sub-resources are not mounted.
func NewHandler(repo Repository, apts *appointments.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, apts: apts, logger: logger}
}

// Create handles POST /patients requests.
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

	p := &Patient{Name: req.Name, Gender: req.Gender, Age: req.Age, Email: req.Email, Phone: req.Phone}
	if err := h.repo.Create(r.Context(), p); err != nil {
		h.logger.Error("failed to create patient", "error", err)
		http.Error(w, "failed to create patient", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

// List handles GET /patients requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list patients", "error", err)
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"patients": items, "count": len(items)})
}

// Get handles GET /patients/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load patient", "error", err)
		http.Error(w, "failed to load patient", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// Delete handles DELETE /patients/{id} requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete patient", "error", err)
		http.Error(w, "failed to delete patient", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Appointments handles GET /patients/{id}/appointments requests, reading the
// authoritative appointment records rather than the reverse index.
func (h *Handler) Appointments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.repo.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load patient", "error", err)
		http.Error(w, "failed to load patient", http.StatusInternalServerError)
		return
	}

	apts, err := h.apts.ListByPatient(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list patient appointments", "error", err, "patient_id", id)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"appointments": apts, "count": len(apts)})
}

var _ appointments.PatientIndex = (Repository)(nil)
