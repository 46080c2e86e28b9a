package patients

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no patient matches the given id.
	ErrNotFound = errors.New("patients: patient not found")
	// ErrMissingName is returned when a patient is created without a name.
	ErrMissingName = errors.New("patients: name is required")
	// ErrInvalidAge is returned when a patient age is negative.
	ErrInvalidAge = errors.New("patients: age must not be negative")
)

// Patient is a person who books appointments. AppointmentIDs is a reverse
// index maintained by the appointments service; the appointment records
// remain the source of truth.
type Patient struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Gender         string    `json:"gender,omitempty"`
	Age            int       `json:"age"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	AppointmentIDs []string  `json:"appointment_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateRequest carries the fields for a new patient.
type CreateRequest struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Age    int    `json:"age"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

// Validate checks required fields.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if r.Age < 0 {
		return ErrInvalidAge
	}
	return nil
}
