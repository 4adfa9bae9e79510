package slotRepo

import (
	"context"
	"sync"
	"testing"
	"time"

	"therapy/database"
	"therapy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSlot(t *testing.T, repo SlotRepository, timeRange string) *models.Slot {
	t.Helper()
	s := &models.Slot{OwnerID: "t1", Date: "2025-06-01", TimeRange: timeRange, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestCreateRejectsDuplicateTuple(t *testing.T) {
	repo := NewMemorySlotRepo()
	newSlot(t, repo, "10:00-11:00")

	err := repo.Create(context.Background(), &models.Slot{OwnerID: "t1", Date: "2025-06-01", TimeRange: "10:00-11:00"})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	err = repo.Create(context.Background(), &models.Slot{OwnerID: "t2", Date: "2025-06-01", TimeRange: "10:00-11:00"})
	assert.NoError(t, err)
}

func TestTryReserveSingleWinner(t *testing.T) {
	repo := NewMemorySlotRepo()
	slot := newSlot(t, repo, "10:00-11:00")

	const racers = 32
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		reserved int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.TryReserve(context.Background(), slot.ID, "p", "s", time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				wins++
			case database.ErrReserved:
				reserved++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, reserved)
}

func TestReleaseIsIdempotent(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()
	slot := newSlot(t, repo, "10:00-11:00")

	_, err := repo.TryReserve(ctx, slot.ID, "p1", "s1", time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.Release(ctx, slot.ID))
	require.NoError(t, repo.Release(ctx, slot.ID))

	got, err := repo.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, got.Reserved)
	assert.Empty(t, got.ReservedBy)
	assert.Nil(t, got.ReservedAt)

	assert.ErrorIs(t, repo.Release(ctx, "missing"), database.ErrNotFound)
}

func TestReleaseReservationRequiresHolder(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()
	slot := newSlot(t, repo, "10:00-11:00")

	_, err := repo.TryReserve(ctx, slot.ID, "p1", "s1", time.Now())
	require.NoError(t, err)

	changed, err := repo.ReleaseReservation(ctx, slot.ID, "other")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.ReleaseReservation(ctx, slot.ID, "s1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.ReleaseReservation(ctx, slot.ID, "s1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestDeleteIfFree(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()
	held := newSlot(t, repo, "10:00-11:00")
	open := newSlot(t, repo, "11:00-12:00")

	_, err := repo.TryReserve(ctx, held.ID, "p1", "s1", time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, repo.DeleteIfFree(ctx, held.ID), database.ErrReserved)
	assert.NoError(t, repo.DeleteIfFree(ctx, open.ID))
	assert.ErrorIs(t, repo.DeleteIfFree(ctx, open.ID), database.ErrNotFound)
}

func TestListAvailableSkipsReserved(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()
	a := newSlot(t, repo, "11:00-12:00")
	b := newSlot(t, repo, "09:00-10:00")
	_, err := repo.TryReserve(ctx, a.ID, "p1", "s1", time.Now())
	require.NoError(t, err)

	avail, err := repo.ListAvailable(ctx, "t1", "2025-06-01")
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, b.ID, avail[0].ID)

	all, err := repo.ListByOwner(ctx, "t1", "2025-06-01", "2025-06-01")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "09:00-10:00", all[0].TimeRange)
}
