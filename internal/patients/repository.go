package patients

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository is the storage contract for patients. AddAppointment and
// RemoveAppointment keep the reverse index in step with the appointment
// store; both satisfy the index interface the appointments service expects.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context) ([]Patient, error)
	Delete(ctx context.Context, id string) error
	AddAppointment(ctx context.Context, patientID, appointmentID string) error
	RemoveAppointment(ctx context.Context, patientID, appointmentID string) error
}

// InMemoryRepository is a mutex-guarded map store used in tests and
// single-process deployments.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Patient
}

// NewInMemoryRepository builds an empty store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*Patient)}
}

// Create stores the patient, assigning an id when absent.
func (r *InMemoryRepository) Create(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.AppointmentIDs == nil {
		p.AppointmentIDs = []string{}
	}
	r.items[p.ID] = clone(p)
	return nil
}

// GetByID loads one patient.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

// List returns all patients sorted by name.
func (r *InMemoryRepository) List(ctx context.Context) ([]Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Patient, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, *clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the patient.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// AddAppointment records the appointment id on the patient. Adding the same
// id twice is a no-op.
func (r *InMemoryRepository) AddAppointment(ctx context.Context, patientID, appointmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[patientID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range p.AppointmentIDs {
		if id == appointmentID {
			return nil
		}
	}
	p.AppointmentIDs = append(p.AppointmentIDs, appointmentID)
	return nil
}

// RemoveAppointment drops the appointment id from the patient's index.
func (r *InMemoryRepository) RemoveAppointment(ctx context.Context, patientID, appointmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[patientID]
	if !ok {
		return ErrNotFound
	}
	kept := p.AppointmentIDs[:0]
	for _, id := range p.AppointmentIDs {
		if id != appointmentID {
			kept = append(kept, id)
		}
	}
	p.AppointmentIDs = kept
	return nil
}

func clone(p *Patient) *Patient {
	cp := *p
	cp.AppointmentIDs = append([]string(nil), p.AppointmentIDs...)
	return &cp
}

var _ Repository = (*InMemoryRepository)(nil)
