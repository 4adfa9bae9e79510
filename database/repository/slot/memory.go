// File: database/repository/slot/memory.go
package slotRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"therapy/database"
	"therapy/models"

	"github.com/google/uuid"
)

type memorySlotRepo struct {
	mu    sync.Mutex
	slots map[string]*models.Slot
}

// NewMemorySlotRepo returns a process-local SlotRepository. The mutex gives
// the same single-winner guarantee as the Mongo conditional update.
func NewMemorySlotRepo() SlotRepository {
	return &memorySlotRepo{slots: make(map[string]*models.Slot)}
}

func (r *memorySlotRepo) Create(_ context.Context, slot *models.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.slots {
		if s.OwnerID == slot.OwnerID && s.Date == slot.Date && s.TimeRange == slot.TimeRange {
			return database.ErrDuplicate
		}
	}
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	if _, ok := r.slots[slot.ID]; ok {
		return database.ErrDuplicate
	}
	r.slots[slot.ID] = slot.Clone()
	return nil
}

func (r *memorySlotRepo) GetByID(_ context.Context, slotID string) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[slotID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *memorySlotRepo) ListByOwner(_ context.Context, ownerID, from, to string) ([]models.Slot, error) {
	return r.collect(func(s *models.Slot) bool {
		return s.OwnerID == ownerID &&
			(from == "" || s.Date >= from) &&
			(to == "" || s.Date <= to)
	}), nil
}

func (r *memorySlotRepo) ListAvailable(_ context.Context, ownerID, date string) ([]models.Slot, error) {
	return r.collect(func(s *models.Slot) bool {
		return !s.Reserved &&
			(ownerID == "" || s.OwnerID == ownerID) &&
			(date == "" || s.Date == date)
	}), nil
}

func (r *memorySlotRepo) TryReserve(_ context.Context, slotID, patientID, sessionID string, at time.Time) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[slotID]
	if !ok {
		return nil, database.ErrNotFound
	}
	if s.Reserved {
		return nil, database.ErrReserved
	}
	reservedAt := at
	s.Reserved = true
	s.ReservedBy = patientID
	s.ReservedAt = &reservedAt
	s.SessionID = sessionID
	s.Version++
	return s.Clone(), nil
}

func (r *memorySlotRepo) Release(_ context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[slotID]
	if !ok {
		return database.ErrNotFound
	}
	if s.Reserved {
		free(s)
	}
	return nil
}

func (r *memorySlotRepo) ReleaseReservation(_ context.Context, slotID, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[slotID]
	if !ok || !s.Reserved || s.SessionID != sessionID {
		return false, nil
	}
	free(s)
	return true, nil
}

func (r *memorySlotRepo) DeleteIfFree(_ context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[slotID]
	if !ok {
		return database.ErrNotFound
	}
	if s.Reserved {
		return database.ErrReserved
	}
	delete(r.slots, slotID)
	return nil
}

func (r *memorySlotRepo) EnsureIndexes(context.Context) error { return nil }

func (r *memorySlotRepo) collect(match func(*models.Slot) bool) []models.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Slot{}
	for _, s := range r.slots {
		if match(s) {
			out = append(out, *s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].TimeRange < out[j].TimeRange
	})
	return out
}

func free(s *models.Slot) {
	s.Reserved = false
	s.ReservedBy = ""
	s.ReservedAt = nil
	s.SessionID = ""
	s.Version++
}
