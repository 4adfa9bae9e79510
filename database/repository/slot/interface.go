// File: database/repository/slot/interface.go
package slotRepo

import (
	"context"
	"time"

	"therapy/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// SlotRepository stores therapist slots. Every reservation change is a single
// conditional write; no method reads a slot and then writes it back.
type SlotRepository interface {
	Create(ctx context.Context, slot *models.Slot) error
	GetByID(ctx context.Context, slotID string) (*models.Slot, error)
	// ListByOwner returns an owner's slots with date in [from, to]. Empty
	// bounds are open.
	ListByOwner(ctx context.Context, ownerID, from, to string) ([]models.Slot, error)
	// ListAvailable returns unreserved slots. Empty ownerID or date match all.
	ListAvailable(ctx context.Context, ownerID, date string) ([]models.Slot, error)
	// TryReserve flips reserved from false to true. It returns
	// database.ErrReserved when the slot is already held.
	TryReserve(ctx context.Context, slotID, patientID, sessionID string, at time.Time) (*models.Slot, error)
	// Release frees the slot whoever holds it. Freeing a free slot is a no-op.
	Release(ctx context.Context, slotID string) error
	// ReleaseReservation frees the slot only while sessionID holds it and
	// reports whether anything changed.
	ReleaseReservation(ctx context.Context, slotID, sessionID string) (bool, error)
	// DeleteIfFree removes an unreserved slot; a reserved slot yields
	// database.ErrReserved.
	DeleteIfFree(ctx context.Context, slotID string) error
	EnsureIndexes(ctx context.Context) error
}

type mongoSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoSlotRepo constructs a new MongoDB SlotRepository.
func NewMongoSlotRepo(db *mongo.Database) SlotRepository {
	return &mongoSlotRepo{
		coll: db.Collection("slots"),
	}
}
