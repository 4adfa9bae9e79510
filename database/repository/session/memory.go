// File: database/repository/session/memory.go
package sessionRepo

import (
	"context"
	"sort"
	"sync"

	"therapy/database"
	"therapy/models"
)

type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

// NewMemorySessionRepo returns a process-local SessionRepository with the
// same version-checked Update as the Mongo backend.
func NewMemorySessionRepo() SessionRepository {
	return &memorySessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *memorySessionRepo) Insert(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		return database.ErrDuplicate
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *memorySessionRepo) GetByID(_ context.Context, sessionID string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *memorySessionRepo) List(_ context.Context, filter models.SessionFilter) ([]models.Session, error) {
	return r.collect(func(s *models.Session) bool {
		return (filter.PatientID == "" || s.PatientID == filter.PatientID) &&
			(filter.TherapistID == "" || s.TherapistID == filter.TherapistID) &&
			(filter.Status == "" || s.Status == filter.Status)
	}), nil
}

func (r *memorySessionRepo) ListReleasePending(context.Context) ([]models.Session, error) {
	return r.collect(func(s *models.Session) bool { return s.SlotReleasePending }), nil
}

func (r *memorySessionRepo) Update(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.sessions[s.ID]
	if !ok {
		return database.ErrNotFound
	}
	if cur.Version != s.Version {
		return database.ErrVersionConflict
	}
	next := s.Clone()
	next.Version++
	r.sessions[s.ID] = next
	s.Version = next.Version
	return nil
}

func (r *memorySessionRepo) EnsureIndexes(context.Context) error { return nil }

func (r *memorySessionRepo) collect(match func(*models.Session) bool) []models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Session{}
	for _, s := range r.sessions {
		if match(s) {
			out = append(out, *s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate < out[j].ScheduledDate
		}
		if out[i].ScheduledTime != out[j].ScheduledTime {
			return out[i].ScheduledTime < out[j].ScheduledTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}
