// File: database/repository/session/interface.go
package sessionRepo

import (
	"context"

	"therapy/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// SessionRepository stores sessions with their embedded call state.
type SessionRepository interface {
	Insert(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
	// ListReleasePending returns cancelled sessions whose slot release has
	// not been confirmed yet.
	ListReleasePending(ctx context.Context) ([]models.Session, error)
	// Update replaces the stored session if its version still equals
	// s.Version and then bumps s.Version. A stale version yields
	// database.ErrVersionConflict.
	Update(ctx context.Context, s *models.Session) error
	EnsureIndexes(ctx context.Context) error
}

type mongoSessionRepo struct {
	coll *mongo.Collection
}

// NewMongoSessionRepo constructs a new MongoDB SessionRepository.
func NewMongoSessionRepo(db *mongo.Database) SessionRepository {
	return &mongoSessionRepo{
		coll: db.Collection("sessions"),
	}
}
