package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/healthdesk/scheduler/internal/timeutil"
	"github.com/healthdesk/scheduler/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Create handles POST /appointments requests. Direct bookings are confirmed
// immediately; tentative holds go through the basket instead.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	apt, err := h.service.Book(r.Context(), &req, StatusConfirmed)
	if err != nil {
		h.writeError(w, err, "failed to book appointment")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(apt)
}

// List handles GET /appointments requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	apts, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err, "failed to list appointments")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"appointments": apts, "count": len(apts)})
}

// Get handles GET /appointments/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	apt, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "failed to load appointment")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apt)
}

// Update handles PATCH /appointments/{id} requests.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	apt, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &patch)
	if err != nil {
		h.writeError(w, err, "failed to update appointment")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apt)
}

// Cancel handles POST /appointments/{id}/cancel requests.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	apt, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "failed to cancel appointment")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apt)
}

// CancelManyRequest carries the ids for a bulk cancellation.
type CancelManyRequest struct {
	IDs []string `json:"ids"`
}

// CancelMany handles POST /appointments/cancel requests. All ids flip to
// canceled or none do.
func (h *Handler) CancelMany(w http.ResponseWriter, r *http.Request) {
	var req CancelManyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "ids required", http.StatusBadRequest)
		return
	}

	if err := h.service.CancelMany(r.Context(), req.IDs); err != nil {
		h.writeError(w, err, "failed to cancel appointments")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"canceled": len(req.IDs)})
}

// Delete handles DELETE /appointments/{id} requests. Only canceled or past
// appointments may be removed.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), timeutil.Today()); err != nil {
		h.writeError(w, err, "failed to delete appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Bookable handles GET /appointments/bookable requests, answering the
// collision question without writing anything.
func (h *Handler) Bookable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := timeutil.ParseDate(q.Get("date"))
	if err != nil {
		http.Error(w, "invalid or missing date", http.StatusBadRequest)
		return
	}
	start, err := timeutil.ParseClock(q.Get("start"))
	if err != nil {
		http.Error(w, "invalid or missing start", http.StatusBadRequest)
		return
	}
	end, err := timeutil.ParseClock(q.Get("end"))
	if err != nil {
		http.Error(w, "invalid or missing end", http.StatusBadRequest)
		return
	}
	doctorID := q.Get("doctor_id")
	if doctorID == "" {
		http.Error(w, "doctor_id required", http.StatusBadRequest)
		return
	}

	ok, err := h.service.Bookable(r.Context(), date, start, end, doctorID, q.Get("exclude"))
	if err != nil {
		h.writeError(w, err, "failed to check slot")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"bookable": ok})
}

// PatientConflicts handles GET /appointments/conflicts requests, returning
// the patient's active appointments covering the given slot.
func (h *Handler) PatientConflicts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	patientID := q.Get("patient_id")
	if patientID == "" {
		http.Error(w, "patient_id required", http.StatusBadRequest)
		return
	}
	date, err := timeutil.ParseDate(q.Get("date"))
	if err != nil {
		http.Error(w, "invalid or missing date", http.StatusBadRequest)
		return
	}
	slot, err := timeutil.ParseClock(q.Get("time"))
	if err != nil {
		http.Error(w, "invalid or missing time", http.StatusBadRequest)
		return
	}

	apts, err := h.service.PatientConflicts(r.Context(), patientID, date, slot)
	if err != nil {
		h.writeError(w, err, "failed to check conflicts")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"conflicts": apts, "count": len(apts)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrSlotUnavailable):
		http.Error(w, "slot unavailable", http.StatusConflict)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, "invalid status transition", http.StatusConflict)
	case errors.Is(err, ErrDeleteForbidden):
		http.Error(w, "only canceled or past appointments can be deleted", http.StatusConflict)
	case errors.Is(err, ErrMissingDoctor),
		errors.Is(err, ErrMissingPatient),
		errors.Is(err, ErrMissingDate),
		errors.Is(err, ErrInvalidInterval),
		errors.Is(err, ErrUnknownStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error(fallback, "error", err)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}
