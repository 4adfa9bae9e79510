// File: database/repository/profile/memory.go
package profileRepo

import (
	"context"
	"sync"

	"therapy/database"
	"therapy/models"
)

type memoryProfileRepo struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

func NewMemoryProfileRepo() ProfileRepository {
	return &memoryProfileRepo{profiles: make(map[string]models.Profile)}
}

func (r *memoryProfileRepo) GetByID(_ context.Context, userID string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

func (r *memoryProfileRepo) Upsert(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = *p
	return nil
}

func (r *memoryProfileRepo) EnsureIndexes(context.Context) error { return nil }
