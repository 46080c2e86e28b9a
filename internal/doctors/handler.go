package doctors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/internal/schedule"
	"github.com/healthdesk/scheduler/internal/timeutil"
	"github.com/healthdesk/scheduler/pkg/logging"
)

const (
	defaultGridStartHour = 8
	defaultGridHours     = 9
)

// Handler handles HTTP requests for doctors, their availability documents
// and the resolved schedule grid.
type Handler struct {
	repo   Repository
	apts   *appointments.Service
	logger *logging.Logger
}

// NewHandler creates a new doctors handler.
func NewHandler(repo Repository, apts *appointments.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, apts: apts, logger: logger}
}

// Create handles POST /doctors requests.
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

	d := &Doctor{Name: req.Name, Email: req.Email, Specialty: req.Specialty}
	if req.Availability != nil {
		d.Availability = *req.Availability
	}
	if err := h.repo.Create(r.Context(), d); err != nil {
		h.logger.Error("failed to create doctor", "error", err)
		http.Error(w, "failed to create doctor", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(d)
}

// List handles GET /doctors requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"doctors": items, "count": len(items)})
}

// Get handles GET /doctors/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDoctor(w, r)
	if err != nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
}

// Delete handles DELETE /doctors/{id} requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete doctor", "error", err)
		http.Error(w, "failed to delete doctor", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAvailability handles GET /doctors/{id}/availability requests.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDoctor(w, r)
	if err != nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&d.Availability)
}

// UpdateAvailability handles PUT /doctors/{id}/availability requests,
// replacing the whole calendar document after validation.
func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var av schedule.Availability
	if err := json.NewDecoder(r.Body).Decode(&av); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := av.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := h.repo.UpdateAvailability(r.Context(), chi.URLParam(r, "id"), &av)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update availability", "error", err)
		http.Error(w, "failed to update availability", http.StatusInternalServerError)
		return
	}

	h.logger.Info("doctor availability updated", "doctor_id", d.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(d)
}

// ScheduleResponse is the resolved grid for one doctor and date.
type ScheduleResponse struct {
	DoctorID string              `json:"doctor_id"`
	Date     timeutil.Date       `json:"date"`
	Slots    []schedule.SlotView `json:"slots"`
}

// Schedule handles GET /doctors/{id}/schedule?date=YYYY-MM-DD requests,
// resolving every half-hour slot of the working day against the doctor's
// calendar and the current appointment snapshot.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDoctor(w, r)
	if err != nil {
		return
	}

	date, err := timeutil.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid or missing date", http.StatusBadRequest)
		return
	}

	startHour := defaultGridStartHour
	numHours := defaultGridHours
	if v := r.URL.Query().Get("start_hour"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < 24 {
			startHour = n
		}
	}
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && startHour+n <= 24 {
			numHours = n
		}
	}

	snapshot, err := h.apts.List(r.Context())
	if err != nil {
		h.logger.Error("failed to load appointment snapshot", "error", err)
		http.Error(w, "failed to resolve schedule", http.StatusInternalServerError)
		return
	}

	slots := schedule.HalfHourSlots(startHour, numHours)
	resp := ScheduleResponse{
		DoctorID: d.ID,
		Date:     date,
		Slots:    schedule.DayGrid(d.ID, &d.Availability, date, slots, snapshot),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Slot handles GET /doctors/{id}/slots?date=YYYY-MM-DD&time=HH:MM requests,
// resolving a single slot.
func (h *Handler) Slot(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDoctor(w, r)
	if err != nil {
		return
	}

	date, err := timeutil.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid or missing date", http.StatusBadRequest)
		return
	}
	slot, err := timeutil.ParseClock(r.URL.Query().Get("time"))
	if err != nil {
		http.Error(w, "invalid or missing time", http.StatusBadRequest)
		return
	}

	snapshot, err := h.apts.List(r.Context())
	if err != nil {
		h.logger.Error("failed to load appointment snapshot", "error", err)
		http.Error(w, "failed to resolve slot", http.StatusInternalServerError)
		return
	}

	status := schedule.ResolveSlot(d.ID, &d.Availability, date, slot, snapshot)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(schedule.SlotView{Slot: slot, Status: status, State: status.State()})
}

func (h *Handler) loadDoctor(w http.ResponseWriter, r *http.Request) (*Doctor, error) {
	d, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return nil, err
		}
		h.logger.Error("failed to load doctor", "error", err)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return nil, err
	}
	return d, nil
}
