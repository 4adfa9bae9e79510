package sessionRepo

import (
	"context"
	"testing"

	"therapy/database"
	"therapy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateChecksVersion(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &models.Session{ID: "s1", Status: models.SessionPending}))

	a, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)

	a.Status = models.SessionConfirmed
	require.NoError(t, repo.Update(ctx, a))
	assert.Equal(t, 1, a.Version)

	b.Status = models.SessionCancelled
	assert.ErrorIs(t, repo.Update(ctx, b), database.ErrVersionConflict)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionConfirmed, got.Status)

	assert.ErrorIs(t, repo.Update(ctx, &models.Session{ID: "nope"}), database.ErrNotFound)
}

func TestReturnedSessionsDoNotAlias(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &models.Session{ID: "s1", Notes: []models.SessionNote{{ID: "n1"}}}))

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	got.Notes[0].Text = "changed"

	again, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, again.Notes[0].Text)
}

func TestListFiltersAndReleasePending(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &models.Session{ID: "a", PatientID: "p1", TherapistID: "t1", Status: models.SessionPending, ScheduledDate: "2025-06-02"}))
	require.NoError(t, repo.Insert(ctx, &models.Session{ID: "b", PatientID: "p1", TherapistID: "t2", Status: models.SessionCancelled, SlotReleasePending: true, ScheduledDate: "2025-06-01"}))
	require.NoError(t, repo.Insert(ctx, &models.Session{ID: "c", PatientID: "p2", TherapistID: "t1", Status: models.SessionPending}))

	got, err := repo.List(ctx, models.SessionFilter{PatientID: "p1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)

	got, err = repo.List(ctx, models.SessionFilter{TherapistID: "t1", Status: models.SessionPending})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	pending, err := repo.ListReleasePending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)
}
