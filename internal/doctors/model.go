package doctors

import (
	"errors"
	"strings"
	"time"

	"github.com/healthdesk/scheduler/internal/schedule"
)

var (
	// ErrNotFound is returned when no doctor matches the given id.
	ErrNotFound = errors.New("doctors: doctor not found")
	// ErrMissingName is returned when a doctor is created without a name.
	ErrMissingName = errors.New("doctors: name is required")
)

// Doctor is a provider with a working-hours document. Availability is the
// full calendar input the slot resolver consumes. Specialty is the specialty
// name, not a normalized id.
type Doctor struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Email        string                `json:"email,omitempty"`
	Specialty    string                `json:"specialty,omitempty"`
	Availability schedule.Availability `json:"availability"`
	CreatedAt    time.Time             `json:"created_at"`
}

// CreateRequest carries the fields for a new doctor.
type CreateRequest struct {
	Name         string                 `json:"name"`
	Email        string                 `json:"email"`
	Specialty    string                 `json:"specialty"`
	Availability *schedule.Availability `json:"availability"`
}

// Validate checks required fields and, when present, the availability
// document.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if r.Availability != nil {
		return r.Availability.Validate()
	}
	return nil
}
