package specialties

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Repository is the storage contract for specialties.
type Repository interface {
	Create(ctx context.Context, sp *Specialty) error
	GetByID(ctx context.Context, id string) (*Specialty, error)
	List(ctx context.Context) ([]Specialty, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is a mutex-guarded map store used in tests and
// single-process deployments.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Specialty
}

// NewInMemoryRepository builds an empty store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*Specialty)}
}

// Create stores the specialty, assigning an id when absent.
func (r *InMemoryRepository) Create(ctx context.Context, sp *Specialty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	cp := *sp
	r.items[sp.ID] = &cp
	return nil
}

// GetByID loads one specialty.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Specialty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sp, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sp
	return &cp, nil
}

// List returns all specialties sorted by name.
func (r *InMemoryRepository) List(ctx context.Context) ([]Specialty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Specialty, 0, len(r.items))
	for _, sp := range r.items {
		out = append(out, *sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the specialty.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
