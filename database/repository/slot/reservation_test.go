package slotRepo

import (
	"context"
	"testing"
	"time"

	"therapy/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func countResponse(mt *mtest.T, n int) bson.D {
	ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
	if n == 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(n)}})
}

func TestMongoTryReserve(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	mt.Run("wins when the slot is free", func(mt *mtest.T) {
		repo := &mongoSlotRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "id", Value: "a"},
			{Key: "reserved", Value: true},
			{Key: "reservedBy", Value: "p1"},
			{Key: "sessionId", Value: "s1"},
			{Key: "version", Value: int32(1)},
		}}))

		slot, err := repo.TryReserve(context.Background(), "a", "p1", "s1", at)
		require.NoError(mt, err)
		assert.True(mt, slot.Reserved)
		assert.Equal(mt, "p1", slot.ReservedBy)
		assert.Equal(mt, "s1", slot.SessionID)
		assert.Equal(mt, 1, slot.Version)
	})

	mt.Run("already reserved", func(mt *mtest.T) {
		repo := &mongoSlotRepo{coll: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			countResponse(mt, 1),
		)

		_, err := repo.TryReserve(context.Background(), "a", "p2", "s2", at)
		assert.ErrorIs(mt, err, database.ErrReserved)
	})

	mt.Run("unknown slot", func(mt *mtest.T) {
		repo := &mongoSlotRepo{coll: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			countResponse(mt, 0),
		)

		_, err := repo.TryReserve(context.Background(), "missing", "p1", "s1", at)
		assert.ErrorIs(mt, err, database.ErrNotFound)
	})
}
