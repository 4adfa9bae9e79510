package sessionRepo

import (
	"context"
	"testing"

	"therapy/database"
	"therapy/models"

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

func TestMongoUpdateVersionCheck(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matching version", func(mt *mtest.T) {
		repo := &mongoSessionRepo{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(1)},
			bson.E{Key: "nModified", Value: int32(1)},
		))

		s := &models.Session{ID: "s1", Status: models.SessionConfirmed, Version: 3}
		require.NoError(mt, repo.Update(context.Background(), s))
		assert.Equal(mt, 4, s.Version)
	})

	mt.Run("stale version", func(mt *mtest.T) {
		repo := &mongoSessionRepo{coll: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}, bson.E{Key: "nModified", Value: int32(0)}),
			countResponse(mt, 1),
		)

		s := &models.Session{ID: "s1", Status: models.SessionConfirmed, Version: 3}
		err := repo.Update(context.Background(), s)
		assert.ErrorIs(mt, err, database.ErrVersionConflict)
		assert.Equal(mt, 3, s.Version, "a rejected write leaves the caller's version alone")
	})

	mt.Run("missing session", func(mt *mtest.T) {
		repo := &mongoSessionRepo{coll: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}, bson.E{Key: "nModified", Value: int32(0)}),
			countResponse(mt, 0),
		)

		err := repo.Update(context.Background(), &models.Session{ID: "gone", Version: 1})
		assert.ErrorIs(mt, err, database.ErrNotFound)
	})
}
