package basket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/pkg/logging"
)

// AppointmentSweepTarget is the slice of the appointments service the
// sweeper drives.
type AppointmentSweepTarget interface {
	ListInProgress(ctx context.Context) ([]appointments.Appointment, error)
	Cancel(ctx context.Context, id string) (*appointments.Appointment, error)
}

// Sweeper cancels in-progress appointments whose hold no longer exists
// anywhere: not in this engine's memory and not mirrored in redis. These are
// holds lost to a process restart; their timers died with the process.
type Sweeper struct {
	apts   AppointmentSweepTarget
	engine *Engine
	store  *HoldStore
	grace  time.Duration
	logger *logging.Logger
	cron   *cron.Cron
}

// NewSweeper constructs a sweeper. store may be nil (single-process setups);
// grace is how old an unheld in-progress appointment must be before it is
// released, normally the hold TTL.
func NewSweeper(apts AppointmentSweepTarget, engine *Engine, store *HoldStore, grace time.Duration, logger *logging.Logger) *Sweeper {
	if apts == nil {
		panic("basket: sweep target required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{apts: apts, engine: engine, store: store, grace: grace, logger: logger}
}

// Start schedules the sweep at the given cron interval (e.g. "@every 1m").
func (s *Sweeper) Start(schedule string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := s.Sweep(ctx); err != nil {
			s.logger.Error("hold sweep failed", "error", err)
		} else if n > 0 {
			s.logger.Info("hold sweep released orphans", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("basket: schedule sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep cancels every orphaned in-progress appointment once and returns the
// number released.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	inProgress, err := s.apts.ListInProgress(ctx)
	if err != nil {
		return 0, err
	}
	if len(inProgress) == 0 {
		return 0, nil
	}

	held := make(map[string]struct{})
	if s.engine != nil {
		held = s.engine.ActiveAppointmentIDs()
	}
	if s.store != nil {
		mirrored, err := s.store.ActiveAppointmentIDs(ctx)
		if err != nil {
			return 0, err
		}
		for id := range mirrored {
			held[id] = struct{}{}
		}
	}

	cutoff := time.Now().UTC().Add(-s.grace)
	released := 0
	for i := range inProgress {
		apt := &inProgress[i]
		if _, ok := held[apt.ID]; ok {
			continue
		}
		if apt.UpdatedAt.After(cutoff) {
			continue
		}
		if _, err := s.apts.Cancel(ctx, apt.ID); err != nil {
			if errors.Is(err, appointments.ErrInvalidTransition) || errors.Is(err, appointments.ErrNotFound) {
				continue
			}
			return released, err
		}
		released++
	}
	return released, nil
}
