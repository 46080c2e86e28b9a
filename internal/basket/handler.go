package basket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/internal/payments"
	"github.com/healthdesk/scheduler/pkg/logging"
)

// Handler handles HTTP requests for the basket.
type Handler struct {
	engine  *Engine
	gateway payments.Gateway
	logger  *logging.Logger
}

// NewHandler creates a new basket handler.
func NewHandler(engine *Engine, gateway payments.Gateway, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, gateway: gateway, logger: logger}
}

// holdView is a hold plus its live countdown.
type holdView struct {
	Hold
	RemainingSeconds int `json:"remainingSeconds"`
}

// Add handles POST /basket/holds requests.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req appointments.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	hold, err := h.engine.Add(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrSlotUnavailable):
			http.Error(w, "slot unavailable", http.StatusConflict)
		case errors.Is(err, appointments.ErrMissingDoctor),
			errors.Is(err, appointments.ErrMissingPatient),
			errors.Is(err, appointments.ErrMissingDate),
			errors.Is(err, appointments.ErrInvalidInterval):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to add hold", "error", err)
			http.Error(w, "failed to add hold", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(h.view(*hold))
}

// List handles GET /basket/holds requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	holds := h.engine.List()
	views := make([]holdView, 0, len(holds))
	for _, hold := range holds {
		views = append(views, h.view(hold))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"holds": views, "count": len(views)})
}

// Remove handles DELETE /basket/holds/{id} requests. Removing a hold that
// already expired succeeds with no effect.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Error("failed to remove hold", "error", err)
		http.Error(w, "failed to remove hold", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /basket/checkout requests.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Checkout(r.Context(), h.gateway)
	switch {
	case err == nil:
	case errors.Is(err, ErrEmptyBasket):
		http.Error(w, "basket is empty", http.StatusConflict)
		return
	case errors.Is(err, ErrPaymentDeclined):
		http.Error(w, "payment declined", http.StatusPaymentRequired)
		return
	default:
		h.logger.Error("checkout failed", "error", err)
		http.Error(w, "checkout failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "confirmed"})
}

func (h *Handler) view(hold Hold) holdView {
	v := holdView{Hold: hold}
	if remaining, ok := h.engine.Remaining(hold.ID); ok {
		v.RemainingSeconds = int(remaining / time.Second)
	}
	return v
}
