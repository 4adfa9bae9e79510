package repository

import (
	"context"

	profileRepo "therapy/database/repository/profile"
	sessionRepo "therapy/database/repository/session"
	slotRepo "therapy/database/repository/slot"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces and constructors.
type SlotRepository = slotRepo.SlotRepository

type SessionRepository = sessionRepo.SessionRepository

type ProfileRepository = profileRepo.ProfileRepository

var (
	NewMongoSlotRepo    = slotRepo.NewMongoSlotRepo
	NewMongoSessionRepo = sessionRepo.NewMongoSessionRepo
	NewMongoProfileRepo = profileRepo.NewMongoProfileRepo
)

// Repositories bundles one backend for every collection.
type Repositories struct {
	Slots    SlotRepository
	Sessions SessionRepository
	Profiles ProfileRepository
}

// NewMongoRepositories binds every repository to db.
func NewMongoRepositories(db *mongo.Database) Repositories {
	return Repositories{
		Slots:    slotRepo.NewMongoSlotRepo(db),
		Sessions: sessionRepo.NewMongoSessionRepo(db),
		Profiles: profileRepo.NewMongoProfileRepo(db),
	}
}

// NewMemoryRepositories returns process-local backends.
func NewMemoryRepositories() Repositories {
	return Repositories{
		Slots:    slotRepo.NewMemorySlotRepo(),
		Sessions: sessionRepo.NewMemorySessionRepo(),
		Profiles: profileRepo.NewMemoryProfileRepo(),
	}
}

// EnsureIndexes creates indexes on every collection.
func (r Repositories) EnsureIndexes(ctx context.Context) error {
	if err := r.Slots.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := r.Sessions.EnsureIndexes(ctx); err != nil {
		return err
	}
	return r.Profiles.EnsureIndexes(ctx)
}
