// File: database/repository/slot/reservation.go
package slotRepo

import (
	"context"
	"errors"
	"time"

	"therapy/database"
	"therapy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoSlotRepo) TryReserve(ctx context.Context, slotID, patientID, sessionID string, at time.Time) (*models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// The reserved=false predicate makes this the single compare-and-set.
	filter := bson.M{"id": slotID, "reserved": false}
	update := bson.M{
		"$set": bson.M{
			"reserved":   true,
			"reservedBy": patientID,
			"reservedAt": at,
			"sessionId":  sessionID,
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var slot models.Slot
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missOrReserved(ctx, slotID)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *mongoSlotRepo) Release(ctx context.Context, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": slotID, "reserved": true}, releaseUpdate())
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"id": slotID})
		if err != nil {
			return err
		}
		if n == 0 {
			return database.ErrNotFound
		}
	}
	return nil
}

func (r *mongoSlotRepo) ReleaseReservation(ctx context.Context, slotID, sessionID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": slotID, "reserved": true, "sessionId": sessionID}
	res, err := r.coll.UpdateOne(ctx, filter, releaseUpdate())
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func releaseUpdate() bson.M {
	return bson.M{
		"$set":   bson.M{"reserved": false},
		"$unset": bson.M{"reservedBy": "", "reservedAt": "", "sessionId": ""},
		"$inc":   bson.M{"version": 1},
	}
}
