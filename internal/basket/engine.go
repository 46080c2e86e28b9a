package basket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/internal/observability/metrics"
	"github.com/healthdesk/scheduler/internal/payments"
	"github.com/healthdesk/scheduler/pkg/logging"
)

var basketTracer = otel.Tracer("scheduler.internal.basket")

var (
	// ErrEmptyBasket is returned when checkout runs with no holds.
	ErrEmptyBasket = errors.New("basket is empty")

	// ErrPaymentDeclined wraps a failed simulated payment; holds are left
	// untouched and their timers keep running.
	ErrPaymentDeclined = errors.New("payment declined")
)

// retryDelay is how long a failed release waits before trying again.
const retryDelay = 15 * time.Second

// AppointmentService is the slice of the appointments service the engine
// drives: booking tentative holds and moving them through the lifecycle.
type AppointmentService interface {
	Book(ctx context.Context, req *appointments.CreateRequest, status appointments.Status) (*appointments.Appointment, error)
	Confirm(ctx context.Context, id string) (*appointments.Appointment, error)
	Cancel(ctx context.Context, id string) (*appointments.Appointment, error)
}

// Hold is one tentative reservation: an in-progress appointment plus its
// expiry deadline.
type Hold struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	AddedAt       time.Time `json:"addedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// hold is the engine-internal record; gen guards against a stale timer
// callback releasing a hold that was re-armed in the meantime.
type hold struct {
	Hold
	timer *time.Timer
	gen   uint64
}

// Engine owns the basket: a map of holds keyed by hold id, one timer per
// hold, and the guarantee that every hold is released at most once.
// Expiry, manual removal and checkout all go through the same lock.
type Engine struct {
	apts    AppointmentService
	store   *HoldStore
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.SchedulerMetrics
	now     func() time.Time

	mu    sync.Mutex
	holds map[string]*hold
}

// NewEngine constructs a basket engine. store and m may be nil; ttl must be
// positive.
func NewEngine(apts AppointmentService, store *HoldStore, ttl time.Duration, logger *logging.Logger, m *metrics.SchedulerMetrics) *Engine {
	if apts == nil {
		panic("basket: appointment service required")
	}
	if ttl <= 0 {
		panic("basket: hold ttl must be positive")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		apts:    apts,
		store:   store,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		holds:   make(map[string]*hold),
	}
}

// Add books an in-progress appointment and starts its expiry countdown.
func (e *Engine) Add(ctx context.Context, req *appointments.CreateRequest) (*Hold, error) {
	ctx, span := basketTracer.Start(ctx, "basket.add")
	defer span.End()

	apt, err := e.apts.Book(ctx, req, appointments.StatusInProgress)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := e.now().UTC()
	h := &hold{Hold: Hold{
		ID:            uuid.NewString(),
		AppointmentID: apt.ID,
		AddedAt:       now,
		ExpiresAt:     now.Add(e.ttl),
	}}
	span.SetAttributes(
		attribute.String("scheduler.hold_id", h.ID),
		attribute.String("scheduler.appointment_id", apt.ID),
	)

	if e.store != nil {
		if err := e.store.Put(ctx, h.ID, apt.ID, e.ttl); err != nil {
			// The hold still works from memory; the sweeper just cannot see it.
			e.logger.Error("failed to mirror hold", "hold_id", h.ID, "error", err)
		}
	}

	e.mu.Lock()
	e.arm(h, e.ttl)
	e.holds[h.ID] = h
	e.mu.Unlock()

	e.metrics.HoldAdded()
	e.logger.Info("hold added",
		"hold_id", h.ID, "appointment_id", apt.ID, "expires_at", h.ExpiresAt)
	cp := h.Hold
	return &cp, nil
}

// arm starts the expiry timer; the caller holds e.mu.
func (e *Engine) arm(h *hold, d time.Duration) {
	h.gen++
	gen := h.gen
	id := h.ID
	h.timer = time.AfterFunc(d, func() {
		e.expire(id, gen)
	})
}

// Remove releases a hold before expiry. Removing an already-released hold is
// a no-op: the timer may have fired a moment earlier.
func (e *Engine) Remove(ctx context.Context, holdID string) error {
	ctx, span := basketTracer.Start(ctx, "basket.remove")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.hold_id", holdID))

	e.mu.Lock()
	h, ok := e.holds[holdID]
	if !ok {
		e.mu.Unlock()
		return nil
	}
	e.detach(h)
	e.mu.Unlock()

	return e.release(ctx, h, "removed")
}

// expire is the timer callback.
func (e *Engine) expire(holdID string, gen uint64) {
	e.mu.Lock()
	h, ok := e.holds[holdID]
	if !ok || h.gen != gen {
		// Already released or re-armed; never release twice.
		e.mu.Unlock()
		return
	}
	e.detach(h)
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.release(ctx, h, "expired"); err != nil {
		e.logger.Error("failed to release expired hold", "hold_id", holdID, "error", err)
	} else {
		e.logger.Info("hold expired", "hold_id", holdID, "appointment_id", h.AppointmentID)
	}
}

// detach removes the hold from the map and stops its timer; the caller holds
// e.mu. After detach no other path can release this hold.
func (e *Engine) detach(h *hold) {
	delete(e.holds, h.ID)
	if h.timer != nil {
		h.timer.Stop()
	}
}

// release cancels the underlying appointment. On failure the hold is put
// back with a short retry timer instead of being silently dropped.
func (e *Engine) release(ctx context.Context, h *hold, reason string) error {
	if _, err := e.apts.Cancel(ctx, h.AppointmentID); err != nil && !errors.Is(err, appointments.ErrInvalidTransition) {
		e.mu.Lock()
		e.holds[h.ID] = h
		e.arm(h, retryDelay)
		e.mu.Unlock()
		return err
	}
	if e.store != nil {
		if err := e.store.Delete(ctx, h.ID); err != nil {
			e.logger.Error("failed to drop hold mirror", "hold_id", h.ID, "error", err)
		}
	}
	e.metrics.ObserveHoldRelease(reason)
	return nil
}

// Checkout charges the simulated payment and confirms every held
// appointment. A declined payment leaves the basket untouched with all
// timers still running.
func (e *Engine) Checkout(ctx context.Context, gateway payments.Gateway) error {
	ctx, span := basketTracer.Start(ctx, "basket.checkout")
	defer span.End()
	started := e.now()

	// Detach everything first so no timer can fire mid-checkout.
	e.mu.Lock()
	if len(e.holds) == 0 {
		e.mu.Unlock()
		return ErrEmptyBasket
	}
	detached := make([]*hold, 0, len(e.holds))
	for _, h := range e.holds {
		detached = append(detached, h)
	}
	for _, h := range detached {
		e.detach(h)
	}
	e.mu.Unlock()
	span.SetAttributes(attribute.Int("scheduler.hold_count", len(detached)))

	if err := gateway.Charge(ctx, payments.ChargeRequest{Reference: uuid.NewString(), Items: len(detached)}); err != nil {
		// Put every hold back with its remaining time.
		now := e.now().UTC()
		e.mu.Lock()
		for _, h := range detached {
			remaining := h.ExpiresAt.Sub(now)
			if remaining < 0 {
				remaining = 0
			}
			e.holds[h.ID] = h
			e.arm(h, remaining)
		}
		e.mu.Unlock()
		span.RecordError(err)
		e.logger.Info("checkout declined, basket kept", "holds", len(detached), "error", err)
		return errors.Join(ErrPaymentDeclined, err)
	}

	var errs []error
	for _, h := range detached {
		if _, err := e.apts.Confirm(ctx, h.AppointmentID); err != nil {
			errs = append(errs, err)
			e.logger.Error("failed to confirm held appointment",
				"hold_id", h.ID, "appointment_id", h.AppointmentID, "error", err)
			continue
		}
		if e.store != nil {
			if err := e.store.Delete(ctx, h.ID); err != nil {
				e.logger.Error("failed to drop hold mirror", "hold_id", h.ID, "error", err)
			}
		}
		e.metrics.ObserveHoldRelease("checkout")
	}
	e.metrics.ObserveCheckoutLatency(e.now().Sub(started).Seconds())
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	e.logger.Info("checkout complete", "confirmed", len(detached))
	return nil
}

// List returns the current holds ordered by creation time.
func (e *Engine) List() []Hold {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Hold, 0, len(e.holds))
	for _, h := range e.holds {
		out = append(out, h.Hold)
	}
	sortHolds(out)
	return out
}

// Remaining reports the time left on a hold; ok is false once released.
func (e *Engine) Remaining(holdID string) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.holds[holdID]
	if !ok {
		return 0, false
	}
	remaining := h.ExpiresAt.Sub(e.now().UTC())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// ActiveAppointmentIDs returns the appointment ids currently held; the
// sweeper skips these.
func (e *Engine) ActiveAppointmentIDs() map[string]struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]struct{}, len(e.holds))
	for _, h := range e.holds {
		out[h.AppointmentID] = struct{}{}
	}
	return out
}

func sortHolds(holds []Hold) {
	sort.Slice(holds, func(i, j int) bool {
		if !holds[i].AddedAt.Equal(holds[j].AddedAt) {
			return holds[i].AddedAt.Before(holds[j].AddedAt)
		}
		return holds[i].ID < holds[j].ID
	})
}
