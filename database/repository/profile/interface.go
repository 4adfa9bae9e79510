// File: database/repository/profile/interface.go
package profileRepo

import (
	"context"

	"therapy/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	EnsureIndexes(ctx context.Context) error
}

type mongoProfileRepo struct {
	coll *mongo.Collection
}

// NewMongoProfileRepo constructs a new MongoDB ProfileRepository.
func NewMongoProfileRepo(db *mongo.Database) ProfileRepository {
	return &mongoProfileRepo{coll: db.Collection("profiles")}
}
