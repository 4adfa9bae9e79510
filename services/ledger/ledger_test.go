package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"therapy/apperrors"
	slotRepo "therapy/database/repository/slot"
	"therapy/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	therapist = models.Actor{ID: "t1", Role: models.RoleTherapist}
	patient   = models.Actor{ID: "p1", Role: models.RolePatient}
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newLedger(t *testing.T, cache *redis.Client) *DefaultSlotLedger {
	t.Helper()
	l := NewSlotLedger(slotRepo.NewMemorySlotRepo(), cache, time.Minute, nil, nil)
	l.Now = func() time.Time { return time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC) }
	return l
}

func TestCreateSlot(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()

	slot, err := l.CreateSlot(ctx, therapist, "2025-06-01", "10:00-11:00")
	require.NoError(t, err)
	assert.NotEmpty(t, slot.ID)
	assert.False(t, slot.Reserved)

	_, err = l.CreateSlot(ctx, therapist, "2025-06-01", "10:00-11:00")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateSlot)

	_, err = l.CreateSlot(ctx, patient, "2025-06-01", "12:00-13:00")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = l.CreateSlot(ctx, therapist, "2025-06-01", "11:00-10:00")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = l.CreateSlot(ctx, therapist, "June 1st", "10:00-11:00")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestConcurrentReserveHasOneWinner(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()
	slot, err := l.CreateSlot(ctx, therapist, "2025-06-01", "10:00-11:00")
	require.NoError(t, err)

	const racers = 16
	errs := make([]error, racers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = l.Reserve(ctx, slot.ID, "p", "s")
		}(i)
	}
	close(start)
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperrors.KindOf(err) == apperrors.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)
}

func TestReserveUnknownSlot(t *testing.T) {
	l := newLedger(t, nil)
	_, err := l.Reserve(context.Background(), "missing", "p1", "s1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()
	slot, err := l.CreateSlot(ctx, therapist, "2025-06-01", "10:00-11:00")
	require.NoError(t, err)

	_, err = l.Reserve(ctx, slot.ID, "p1", "s1")
	require.NoError(t, err)

	require.NoError(t, l.Release(ctx, slot.ID))
	require.NoError(t, l.Release(ctx, slot.ID))

	got, err := l.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, got.Reserved)
	assert.Empty(t, got.ReservedBy)
	assert.Nil(t, got.ReservedAt)
}

func TestReleaseForIgnoresOtherHolders(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()
	slot, err := l.CreateSlot(ctx, therapist, "2025-06-01", "10:00-11:00")
	require.NoError(t, err)
	_, err = l.Reserve(ctx, slot.ID, "p2", "s2")
	require.NoError(t, err)

	require.NoError(t, l.ReleaseFor(ctx, slot.ID, "s1"))
	got, err := l.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, got.Reserved)

	require.NoError(t, l.ReleaseFor(ctx, slot.ID, "s2"))
	got, err = l.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, got.Reserved)
}

func TestRemoveSlot(t *testing.T) {
	l := newLedger(t, nil)
	ctx := context.Background()
	held, err := l.CreateSlot(ctx, therapist, "2025-06-01", "10:00-11:00")
	require.NoError(t, err)
	open, err := l.CreateSlot(ctx, therapist, "2025-06-01", "11:00-12:00")
	require.NoError(t, err)
	_, err = l.Reserve(ctx, held.ID, "p1", "s1")
	require.NoError(t, err)

	assert.ErrorIs(t, l.RemoveSlot(ctx, therapist, held.ID), apperrors.ErrSlotInUse)
	assert.ErrorIs(t, l.RemoveSlot(ctx, models.Actor{ID: "t2", Role: models.RoleTherapist}, open.ID), apperrors.ErrForbidden)
	assert.NoError(t, l.RemoveSlot(ctx, therapist, open.ID))
	assert.ErrorIs(t, l.RemoveSlot(ctx, therapist, open.ID), apperrors.ErrNotFound)
}

func TestAvailableCacheIsDroppedOnReserve(t *testing.T) {
	mr, client := setupTestRedis(t)
	l := newLedger(t, client)
	ctx := context.Background()

	slot, err := l.CreateSlot(ctx, therapist, "2025-06-01", "10:00-11:00")
	require.NoError(t, err)

	avail, err := l.ListAvailable(ctx, therapist.ID, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.True(t, mr.Exists(availableKey(therapist.ID, "2025-06-01")))

	_, err = l.Reserve(ctx, slot.ID, "p1", "s1")
	require.NoError(t, err)
	assert.False(t, mr.Exists(availableKey(therapist.ID, "2025-06-01")))

	avail, err = l.ListAvailable(ctx, therapist.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Empty(t, avail)

	require.NoError(t, l.Release(ctx, slot.ID))
	avail, err = l.ListAvailable(ctx, therapist.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Len(t, avail, 1)
}

func TestListAvailableSurvivesCacheOutage(t *testing.T) {
	mr, client := setupTestRedis(t)
	l := newLedger(t, client)
	ctx := context.Background()

	_, err := l.CreateSlot(ctx, therapist, "2025-06-01", "10:00-11:00")
	require.NoError(t, err)
	mr.Close()

	avail, err := l.ListAvailable(ctx, therapist.ID, "")
	require.NoError(t, err)
	assert.Len(t, avail, 1)
}
