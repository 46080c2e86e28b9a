package appointments

import (
	"fmt"
	"strings"
	"time"

	"github.com/healthdesk/scheduler/internal/timeutil"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	// StatusConfirmed is a booked and paid appointment.
	StatusConfirmed Status = "confirmed"
	// StatusInProgress is a tentative hold awaiting checkout.
	StatusInProgress Status = "in-progress"
	// StatusCanceled is terminal; canceled appointments never block a slot.
	StatusCanceled Status = "canceled"
)

// ParseStatus validates a stored status string.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.TrimSpace(value)) {
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusCanceled:
		return StatusCanceled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, value)
	}
}

// Active reports whether the appointment occupies its slot.
func (s Status) Active() bool {
	return s == StatusConfirmed || s == StatusInProgress
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
// There is no transition out of canceled.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusInProgress:
		return next == StatusConfirmed || next == StatusCanceled
	case StatusConfirmed:
		return next == StatusCanceled
	default:
		return false
	}
}

// Appointment is a booked or held visit. Start/End form the half-open
// interval [Start, End) on Date.
type Appointment struct {
	ID          string           `json:"id"`
	DoctorID    string           `json:"doctorId"`
	PatientID   string           `json:"patientId"`
	Date        timeutil.Date    `json:"date"`
	Start       timeutil.Minutes `json:"start"`
	End         timeutil.Minutes `json:"end"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Status      Status           `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Covers reports whether the appointment is active and its interval
// contains the slot on the given date.
func (a *Appointment) Covers(date timeutil.Date, slot timeutil.Minutes) bool {
	return a.Status.Active() && a.Date.Equal(date) && timeutil.Contains(a.Start, a.End, slot)
}

// CreateRequest carries the fields needed to book an appointment.
type CreateRequest struct {
	DoctorID    string           `json:"doctorId"`
	PatientID   string           `json:"patientId"`
	Date        timeutil.Date    `json:"date"`
	Start       timeutil.Minutes `json:"start"`
	End         timeutil.Minutes `json:"end"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
}

// Validate checks required references and interval ordering.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.DoctorID) == "" {
		return ErrMissingDoctor
	}
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatient
	}
	if r.Date.IsZero() {
		return ErrMissingDate
	}
	if r.Start >= r.End {
		return ErrInvalidInterval
	}
	return nil
}

// UpdateRequest is a partial patch; nil fields are left unchanged.
type UpdateRequest struct {
	Date        *timeutil.Date    `json:"date,omitempty"`
	Start       *timeutil.Minutes `json:"start,omitempty"`
	End         *timeutil.Minutes `json:"end,omitempty"`
	Type        *string           `json:"type,omitempty"`
	Description *string           `json:"description,omitempty"`
}
