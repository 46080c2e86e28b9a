package appointments

import "errors"

var (
	// ErrNotFound is returned when an appointment id is absent from the store.
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotUnavailable is returned when the requested interval overlaps an
	// active appointment for the same doctor and date.
	ErrSlotUnavailable = errors.New("slot overlaps an existing appointment")

	// ErrInvalidTransition is returned when a status change violates the
	// appointment lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownStatus is returned when a stored status string is not one of
	// the three lifecycle states.
	ErrUnknownStatus = errors.New("unknown appointment status")

	// ErrDeleteForbidden is returned when a hard delete targets an appointment
	// that is neither canceled nor in the past.
	ErrDeleteForbidden = errors.New("only canceled or past appointments can be deleted")

	// ErrMissingDoctor is returned when the doctor reference is empty.
	ErrMissingDoctor = errors.New("doctor id is required")

	// ErrMissingPatient is returned when the patient reference is empty.
	ErrMissingPatient = errors.New("patient id is required")

	// ErrMissingDate is returned when the appointment date is unset.
	ErrMissingDate = errors.New("date is required")

	// ErrInvalidInterval is returned when start is not strictly before end.
	ErrInvalidInterval = errors.New("start must be before end")
)
