// File: database/repository/session/crud.go
package sessionRepo

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

func (r *mongoSessionRepo) Insert(ctx context.Context, s *models.Session) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return database.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoSessionRepo) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.Session
	err := r.coll.FindOne(ctx, bson.M{"id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *mongoSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	q := bson.M{}
	if filter.PatientID != "" {
		q["patientId"] = filter.PatientID
	}
	if filter.TherapistID != "" {
		q["therapistId"] = filter.TherapistID
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	return r.find(ctx, q)
}

func (r *mongoSessionRepo) ListReleasePending(ctx context.Context) ([]models.Session, error) {
	return r.find(ctx, bson.M{"slotReleasePending": true})
}

func (r *mongoSessionRepo) Update(ctx context.Context, s *models.Session) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	expected := s.Version
	next := s.Clone()
	next.Version = expected + 1

	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": s.ID, "version": expected}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"id": s.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return database.ErrNotFound
		}
		return database.ErrVersionConflict
	}
	s.Version = next.Version
	return nil
}

func (r *mongoSessionRepo) find(ctx context.Context, filter bson.M) ([]models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}, {Key: "scheduledTime", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []models.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
