package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"therapy/apperrors"
	"therapy/database"
	sessionRepo "therapy/database/repository/session"
	"therapy/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const casAttempts = 3

func (m *DefaultLifecycleManager) Confirm(ctx context.Context, actor models.Actor, sessionID string) (s *models.Session, err error) {
	defer func() { m.Metrics.ObserveTransition("confirm", err) }()

	s, err = m.mutate(ctx, sessionID, func(s *models.Session) error {
		if err := requireTherapist(s, actor); err != nil {
			return err
		}
		if err := requireStatus(s, models.SessionPending); err != nil {
			return err
		}
		now := m.Now().UTC()
		s.Status = models.SessionConfirmed
		s.ConfirmedAt = &now
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.Logger.Info("Session confirmed", zap.String("sessionId", s.ID), zap.String("therapistId", actor.ID))
	m.scheduleReminder(ctx, s)
	n := sessionEvent(models.EventSessionConfirmed, s.PatientID, s)
	m.Events.Publish(n, m.enrichConfirmation(s.Clone()))
	return s, nil
}

// Decline is the therapist turning the session down.
func (m *DefaultLifecycleManager) Decline(ctx context.Context, actor models.Actor, sessionID, reason string) (s *models.Session, err error) {
	defer func() { m.Metrics.ObserveTransition("decline", err) }()
	return m.cancel(ctx, actor, sessionID, reason, true)
}

func (m *DefaultLifecycleManager) Cancel(ctx context.Context, actor models.Actor, sessionID, reason string) (s *models.Session, err error) {
	defer func() { m.Metrics.ObserveTransition("cancel", err) }()
	return m.cancel(ctx, actor, sessionID, reason, false)
}

func (m *DefaultLifecycleManager) cancel(ctx context.Context, actor models.Actor, sessionID, reason string, therapistOnly bool) (*models.Session, error) {
	s, err := m.mutate(ctx, sessionID, func(s *models.Session) error {
		if therapistOnly {
			if err := requireTherapist(s, actor); err != nil {
				return err
			}
		} else if err := requireParty(s, actor); err != nil {
			return err
		}
		if err := requireStatus(s, models.SessionPending, models.SessionConfirmed); err != nil {
			return err
		}
		now := m.Now().UTC()
		s.Status = models.SessionCancelled
		s.CancelledBy = actor.ID
		s.CancelReason = strings.TrimSpace(reason)
		s.CancelledAt = &now
		s.UpdatedAt = now
		s.SlotReleasePending = s.SlotID != ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.Logger.Info("Session cancelled", zap.String("sessionId", s.ID), zap.String("by", actor.ID),
		zap.Bool("declined", therapistOnly))
	if s.SlotReleasePending {
		m.releaseAfterCancel(ctx, s)
	}
	m.publish(models.EventSessionCancelled, s.Counterparty(actor.ID), s)
	return s, nil
}

func (m *DefaultLifecycleManager) Complete(ctx context.Context, actor models.Actor, sessionID, notes string) (s *models.Session, err error) {
	defer func() { m.Metrics.ObserveTransition("complete", err) }()

	notes = strings.TrimSpace(notes)
	s, err = m.mutate(ctx, sessionID, func(s *models.Session) error {
		if err := requireTherapist(s, actor); err != nil {
			return err
		}
		if err := requireStatus(s, models.SessionConfirmed); err != nil {
			return err
		}
		now := m.Now().UTC()
		s.Status = models.SessionCompleted
		s.CompletedAt = &now
		s.UpdatedAt = now
		if notes != "" {
			s.Notes = append(s.Notes, m.newNote(actor.ID, notes, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.Logger.Info("Session completed", zap.String("sessionId", s.ID), zap.String("therapistId", actor.ID))
	m.publish(models.EventSessionCompleted, s.PatientID, s)
	return s, nil
}

// AddNote appends a note in any state, terminal ones included. Notes are
// never edited or removed.
func (m *DefaultLifecycleManager) AddNote(ctx context.Context, actor models.Actor, sessionID, text string) (*models.Session, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "note text is required")
	}
	return m.mutate(ctx, sessionID, func(s *models.Session) error {
		if err := requireParty(s, actor); err != nil {
			return err
		}
		now := m.Now().UTC()
		s.Notes = append(s.Notes, m.newNote(actor.ID, text, now))
		s.UpdatedAt = now
		return nil
	})
}

func (m *DefaultLifecycleManager) Get(ctx context.Context, actor models.Actor, sessionID string) (*models.Session, error) {
	s, err := m.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, translate(err, sessionID)
	}
	if err := requireParty(s, actor); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *DefaultLifecycleManager) List(ctx context.Context, actor models.Actor, status models.SessionStatus) ([]models.Session, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.New(apperrors.KindInvalidInput, "unknown status %q", status)
	}
	filter := models.SessionFilter{Status: status}
	switch actor.Role {
	case models.RolePatient:
		filter.PatientID = actor.ID
	case models.RoleTherapist:
		filter.TherapistID = actor.ID
	default:
		return nil, apperrors.New(apperrors.KindForbidden, "unknown role %q", actor.Role)
	}
	sessions, err := m.Sessions.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "list sessions")
	}
	return sessions, nil
}

// mutate applies fn under the version check. A lost race re-reads and
// re-validates, so a transition that became illegal is rejected rather than
// clamped.
func (m *DefaultLifecycleManager) mutate(ctx context.Context, sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	s, err := sessionRepo.Mutate(ctx, m.Sessions, sessionID, casAttempts, fn)
	if err != nil {
		return nil, translate(err, sessionID)
	}
	return s, nil
}

func (m *DefaultLifecycleManager) newNote(authorID, text string, at time.Time) models.SessionNote {
	return models.SessionNote{ID: uuid.New().String(), AuthorID: authorID, Text: text, CreatedAt: at}
}

func translate(err error, sessionID string) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, database.ErrNotFound):
		return apperrors.New(apperrors.KindNotFound, "session %s not found", sessionID)
	case errors.Is(err, database.ErrVersionConflict):
		return apperrors.Wrap(apperrors.KindConflict, err, "session %s", sessionID)
	}
	return apperrors.Wrap(apperrors.KindInternal, err, "session %s", sessionID)
}

func requireParty(s *models.Session, actor models.Actor) error {
	if !s.IsParty(actor.ID) {
		return apperrors.New(apperrors.KindForbidden, "not a party to session %s", s.ID)
	}
	return nil
}

func requireTherapist(s *models.Session, actor models.Actor) error {
	if s.RoleOf(actor.ID) != models.RoleTherapist {
		return apperrors.New(apperrors.KindForbidden, "only the session's therapist may do this")
	}
	return nil
}

// requireStatus rejects terminal sessions with TerminalState and any other
// status outside allowed with InvalidTransition.
func requireStatus(s *models.Session, allowed ...models.SessionStatus) error {
	for _, st := range allowed {
		if s.Status == st {
			return nil
		}
	}
	if s.Status.Terminal() {
		return apperrors.New(apperrors.KindTerminalState, "session %s is %s", s.ID, s.Status)
	}
	return apperrors.New(apperrors.KindInvalidTransition, "session %s is %s", s.ID, s.Status)
}
