// File: database/repository/session/mutate.go
package sessionRepo

import (
	"context"
	"errors"

	"therapy/database"
	"therapy/models"
)

// Mutate reads the session, lets apply change it and writes it back with a
// version check. On a version conflict it re-reads and re-applies, so apply
// always validates against the latest stored state. Errors from apply are
// returned unchanged; database.ErrVersionConflict is returned once attempts
// are exhausted.
func Mutate(ctx context.Context, repo SessionRepository, sessionID string, attempts int, apply func(s *models.Session) error) (*models.Session, error) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		s, err := repo.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if err := apply(s); err != nil {
			return nil, err
		}
		err = repo.Update(ctx, s)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, database.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, database.ErrVersionConflict
}
