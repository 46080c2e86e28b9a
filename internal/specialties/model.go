package specialties

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no specialty matches the given id.
	ErrNotFound = errors.New("specialties: specialty not found")
	// ErrMissingName is returned when a specialty is created without a name.
	ErrMissingName = errors.New("specialties: name is required")
)

// Specialty is a medical discipline doctors are grouped under. Color is the
// hex accent used when rendering that doctor's appointments.
type Specialty struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// CreateRequest carries the fields for a new specialty.
type CreateRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Validate checks required fields.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	return nil
}
