package appointments

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/healthdesk/scheduler/internal/observability/metrics"
	"github.com/healthdesk/scheduler/internal/timeutil"
	"github.com/healthdesk/scheduler/pkg/logging"
)

var appointmentsTracer = otel.Tracer("scheduler.internal.appointments")

// PatientIndex maintains the patient-side reverse list of appointment ids.
// The appointment record stays the source of truth for the association.
type PatientIndex interface {
	AddAppointment(ctx context.Context, patientID, appointmentID string) error
	RemoveAppointment(ctx context.Context, patientID, appointmentID string) error
}

// Service owns the appointment lifecycle: booking, edits, cancellation and
// hard deletes, with collision detection enforced before every write.
type Service struct {
	repo     Repository
	patients PatientIndex
	logger   *logging.Logger
	metrics  *metrics.SchedulerMetrics
}

// NewService constructs an appointments service. patients and m may be nil.
func NewService(repo Repository, patients PatientIndex, logger *logging.Logger, m *metrics.SchedulerMetrics) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, patients: patients, logger: logger, metrics: m}
}

// Book creates an appointment with the given initial status. Direct bookings
// use StatusConfirmed; basket holds use StatusInProgress.
func (s *Service) Book(ctx context.Context, req *CreateRequest, status Status) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("scheduler.doctor_id", req.DoctorID),
		attribute.String("scheduler.date", req.Date.String()),
	)

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !status.Active() {
		return nil, ErrInvalidTransition
	}

	snapshot, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !Bookable(req.Date, req.Start, req.End, req.DoctorID, snapshot, "") {
		s.metrics.ObserveCollisionRejection()
		return nil, ErrSlotUnavailable
	}

	apt := &Appointment{
		DoctorID:    req.DoctorID,
		PatientID:   req.PatientID,
		Date:        req.Date,
		Start:       req.Start,
		End:         req.End,
		Type:        req.Type,
		Description: req.Description,
		Status:      status,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.patients != nil {
		if err := s.patients.AddAppointment(ctx, apt.PatientID, apt.ID); err != nil {
			s.logger.Error("failed to index appointment on patient",
				"appointment_id", apt.ID, "patient_id", apt.PatientID, "error", err)
		}
	}

	s.metrics.ObserveBooking(string(status))
	s.logger.Info("appointment booked",
		"appointment_id", apt.ID,
		"doctor_id", apt.DoctorID,
		"date", apt.Date.String(),
		"start", apt.Start.String(),
		"status", string(status),
	)
	return apt, nil
}

// Get loads one appointment.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the full snapshot.
func (s *Service) List(ctx context.Context) ([]Appointment, error) {
	return s.repo.List(ctx)
}

// ListByPatient returns the patient's appointments.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// ListInProgress returns all tentative holds.
func (s *Service) ListInProgress(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListInProgress(ctx)
}

// Update applies a partial patch, re-running collision detection with the
// appointment itself excluded before persisting.
func (s *Service) Update(ctx context.Context, id string, patch *UpdateRequest) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.update")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.appointment_id", id))

	apt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if apt.Status == StatusCanceled {
		return nil, ErrInvalidTransition
	}

	if patch.Date != nil {
		apt.Date = *patch.Date
	}
	if patch.Start != nil {
		apt.Start = *patch.Start
	}
	if patch.End != nil {
		apt.End = *patch.End
	}
	if patch.Type != nil {
		apt.Type = *patch.Type
	}
	if patch.Description != nil {
		apt.Description = *patch.Description
	}
	if apt.Start >= apt.End {
		return nil, ErrInvalidInterval
	}

	snapshot, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !Bookable(apt.Date, apt.Start, apt.End, apt.DoctorID, snapshot, apt.ID) {
		s.metrics.ObserveCollisionRejection()
		return nil, ErrSlotUnavailable
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("appointment updated", "appointment_id", apt.ID)
	return apt, nil
}

// Cancel transitions the appointment to canceled. The record persists.
func (s *Service) Cancel(ctx context.Context, id string) (*Appointment, error) {
	return s.transition(ctx, id, StatusCanceled)
}

// Confirm transitions an in-progress hold to confirmed.
func (s *Service) Confirm(ctx context.Context, id string) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed)
}

func (s *Service) transition(ctx context.Context, id string, next Status) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("scheduler.appointment_id", id),
		attribute.String("scheduler.next_status", string(next)),
	)

	apt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !apt.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	updated, err := s.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("appointment status changed",
		"appointment_id", id, "from", string(apt.Status), "to", string(next))
	return updated, nil
}

// CancelMany cancels a set of appointments atomically. Lifecycle rules still
// apply: every target must currently be cancelable.
func (s *Service) CancelMany(ctx context.Context, ids []string) error {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.cancel_many")
	defer span.End()
	span.SetAttributes(attribute.Int("scheduler.count", len(ids)))

	for _, id := range ids {
		apt, err := s.repo.GetByID(ctx, id)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if !apt.Status.CanTransitionTo(StatusCanceled) {
			return ErrInvalidTransition
		}
	}
	if err := s.repo.CancelMany(ctx, ids); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("appointments canceled", "count", len(ids))
	return nil
}

// Delete removes the record entirely. Only canceled or past appointments may
// be deleted; today anchors the "past" check.
func (s *Service) Delete(ctx context.Context, id string, today timeutil.Date) error {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.delete")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.appointment_id", id))

	apt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if apt.Status != StatusCanceled && !apt.Date.Before(today) {
		return ErrDeleteForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	if s.patients != nil {
		if err := s.patients.RemoveAppointment(ctx, apt.PatientID, apt.ID); err != nil {
			s.logger.Error("failed to unindex appointment on patient",
				"appointment_id", apt.ID, "patient_id", apt.PatientID, "error", err)
		}
	}
	s.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

// PatientConflicts returns the patient's active appointments covering the
// given slot, used to decide between booking and edit flows.
func (s *Service) PatientConflicts(ctx context.Context, patientID string, date timeutil.Date, slot timeutil.Minutes) ([]Appointment, error) {
	apts, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0)
	for i := range apts {
		if apts[i].Covers(date, slot) {
			out = append(out, apts[i])
		}
	}
	return out, nil
}

// Bookable answers the collision question against the current snapshot
// without writing anything.
func (s *Service) Bookable(ctx context.Context, date timeutil.Date, start, end timeutil.Minutes, doctorID, excludeID string) (bool, error) {
	if start >= end {
		return false, ErrInvalidInterval
	}
	snapshot, err := s.repo.List(ctx)
	if err != nil {
		return false, err
	}
	return Bookable(date, start, end, doctorID, snapshot, excludeID), nil
}
