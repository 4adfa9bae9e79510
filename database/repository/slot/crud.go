// File: database/repository/slot/crud.go
package slotRepo

import (
	"context"
	"errors"
	"time"

	"therapy/database"
	"therapy/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoSlotRepo) Create(ctx context.Context, slot *models.Slot) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, slot); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return database.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoSlotRepo) GetByID(ctx context.Context, slotID string) (*models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slot models.Slot
	err := r.coll.FindOne(ctx, bson.M{"id": slotID}).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *mongoSlotRepo) ListByOwner(ctx context.Context, ownerID, from, to string) ([]models.Slot, error) {
	filter := bson.M{"ownerId": ownerID}
	dateRange := bson.M{}
	if from != "" {
		dateRange["$gte"] = from
	}
	if to != "" {
		dateRange["$lte"] = to
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}
	return r.find(ctx, filter)
}

func (r *mongoSlotRepo) ListAvailable(ctx context.Context, ownerID, date string) ([]models.Slot, error) {
	filter := bson.M{"reserved": false}
	if ownerID != "" {
		filter["ownerId"] = ownerID
	}
	if date != "" {
		filter["date"] = date
	}
	return r.find(ctx, filter)
}

func (r *mongoSlotRepo) DeleteIfFree(ctx context.Context, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": slotID, "reserved": false})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return r.missOrReserved(ctx, slotID)
	}
	return nil
}

func (r *mongoSlotRepo) find(ctx context.Context, filter bson.M) ([]models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "timeRange", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	slots := []models.Slot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// missOrReserved explains why a write filtered on reserved=false matched
// nothing.
func (r *mongoSlotRepo) missOrReserved(ctx context.Context, slotID string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"id": slotID})
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return database.ErrReserved
}
