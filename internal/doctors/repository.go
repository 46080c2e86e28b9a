package doctors

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/healthdesk/scheduler/internal/schedule"
)

// Repository is the storage contract for doctors.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id string) (*Doctor, error)
	List(ctx context.Context) ([]Doctor, error)
	Delete(ctx context.Context, id string) error
	UpdateAvailability(ctx context.Context, id string, av *schedule.Availability) (*Doctor, error)
}

// InMemoryRepository is a mutex-guarded map store used in tests and
// single-process deployments.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Doctor
}

// NewInMemoryRepository builds an empty store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*Doctor)}
}

// Create stores the doctor, assigning an id when absent.
func (r *InMemoryRepository) Create(ctx context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	cp := *d
	r.items[d.ID] = &cp
	return nil
}

// GetByID loads one doctor.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// List returns all doctors sorted by name.
func (r *InMemoryRepository) List(ctx context.Context) ([]Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Doctor, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the doctor.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// UpdateAvailability replaces the doctor's availability document.
func (r *InMemoryRepository) UpdateAvailability(ctx context.Context, id string, av *schedule.Availability) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Availability = *av
	cp := *d
	return &cp, nil
}

var _ Repository = (*InMemoryRepository)(nil)
