package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage. The scheduling
// core depends only on this interface; relational and document adapters plug
// in behind it.
type Repository interface {
	Create(ctx context.Context, apt *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	Update(ctx context.Context, apt *Appointment) error
	UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error)
	// CancelMany marks every given appointment canceled as one atomic write.
	CancelMany(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
	// List returns a snapshot of all appointments; collision checks and the
	// availability resolver run against this snapshot.
	List(ctx context.Context) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]Appointment, error)
	ListInProgress(ctx context.Context) ([]Appointment, error)
}

// InMemoryRepository keeps appointments in a process-local map. Used in tests
// and when no database is configured.
type InMemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Appointment)}
}

// Create assigns an id and stores the appointment.
func (r *InMemoryRepository) Create(ctx context.Context, apt *Appointment) error {
	if apt.ID == "" {
		apt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	apt.CreatedAt = now
	apt.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *apt
	r.byID[apt.ID] = &cp
	return nil
}

// GetByID retrieves an appointment by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apt, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

// Update replaces the stored record.
func (r *InMemoryRepository) Update(ctx context.Context, apt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[apt.ID]; !ok {
		return ErrNotFound
	}
	apt.UpdatedAt = time.Now().UTC()
	cp := *apt
	r.byID[apt.ID] = &cp
	return nil
}

// UpdateStatus patches only the status field.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	apt.Status = status
	apt.UpdatedAt = time.Now().UTC()
	cp := *apt
	return &cp, nil
}

// CancelMany cancels all given ids, or none when any id is unknown.
func (r *InMemoryRepository) CancelMany(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.byID[id]; !ok {
			return ErrNotFound
		}
	}
	now := time.Now().UTC()
	for _, id := range ids {
		r.byID[id].Status = StatusCanceled
		r.byID[id].UpdatedAt = now
	}
	return nil
}

// Delete removes the record entirely.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// List returns all appointments ordered by date then start time.
func (r *InMemoryRepository) List(ctx context.Context) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Appointment, 0, len(r.byID))
	for _, apt := range r.byID {
		out = append(out, *apt)
	}
	sortAppointments(out)
	return out, nil
}

// ListByPatient returns the patient's appointments.
func (r *InMemoryRepository) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Appointment, 0)
	for _, apt := range r.byID {
		if apt.PatientID == patientID {
			out = append(out, *apt)
		}
	}
	sortAppointments(out)
	return out, nil
}

// ListInProgress returns all tentative holds; the sweeper scans these.
func (r *InMemoryRepository) ListInProgress(ctx context.Context) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Appointment, 0)
	for _, apt := range r.byID {
		if apt.Status == StatusInProgress {
			out = append(out, *apt)
		}
	}
	sortAppointments(out)
	return out, nil
}

func sortAppointments(apts []Appointment) {
	sort.Slice(apts, func(i, j int) bool {
		if !apts[i].Date.Equal(apts[j].Date) {
			return apts[i].Date.Before(apts[j].Date)
		}
		if apts[i].Start != apts[j].Start {
			return apts[i].Start < apts[j].Start
		}
		return apts[i].ID < apts[j].ID
	})
}

var _ Repository = (*InMemoryRepository)(nil)
