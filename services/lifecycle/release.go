package lifecycle

import (
	"context"
	"errors"

	"therapy/apperrors"
	"therapy/database"
	"therapy/models"

	"go.uber.org/zap"
)

// releaseAfterCancel frees the slot of a freshly cancelled session. If that
// fails the release is queued and retried until it succeeds; the session
// stays flagged so the startup sweep can pick it up if queueing fails too.
func (m *DefaultLifecycleManager) releaseAfterCancel(ctx context.Context, s *models.Session) {
	err := m.releaseSlot(ctx, s)
	if err == nil {
		m.Metrics.ObserveRelease("inline")
		return
	}
	m.Logger.Warn("Slot release failed, queueing retry", zap.String("sessionId", s.ID),
		zap.String("slotId", s.SlotID), zap.Error(err))
	m.queueRelease(ctx, s)
}

func (m *DefaultLifecycleManager) queueRelease(ctx context.Context, s *models.Session) {
	if m.Tasks == nil {
		m.Logger.Error("Slot release left pending, no task queue", zap.String("sessionId", s.ID))
		return
	}
	err := m.Tasks.EnqueueSlotRelease(ctx, models.SlotReleasePayload{SessionID: s.ID, SlotID: s.SlotID})
	if err != nil {
		m.Logger.Error("Failed to queue slot release", zap.String("sessionId", s.ID),
			zap.String("slotId", s.SlotID), zap.Error(err))
		return
	}
	m.Metrics.ObserveRelease("queued")
}

// releaseSlot frees the slot held by s and clears the pending flag. Both
// steps are idempotent so the whole call may be repeated.
func (m *DefaultLifecycleManager) releaseSlot(ctx context.Context, s *models.Session) error {
	if err := m.Ledger.ReleaseFor(ctx, s.SlotID, s.ID); err != nil {
		return err
	}
	_, err := m.mutate(ctx, s.ID, func(cur *models.Session) error {
		if !cur.SlotReleasePending {
			return errAlreadyReleased
		}
		cur.SlotReleasePending = false
		return nil
	})
	if errors.Is(err, errAlreadyReleased) {
		err = nil
	}
	if err == nil {
		s.SlotReleasePending = false
	}
	return err
}

var errAlreadyReleased = errors.New("slot already released")

// RetrySlotRelease is the worker side of a queued release.
func (m *DefaultLifecycleManager) RetrySlotRelease(ctx context.Context, sessionID string) error {
	s, err := m.Sessions.GetByID(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !s.SlotReleasePending {
		return nil
	}
	if err := m.releaseSlot(ctx, s); err != nil {
		return err
	}
	m.Metrics.ObserveRelease("worker")
	m.Logger.Info("Queued slot release completed", zap.String("sessionId", s.ID), zap.String("slotId", s.SlotID))
	return nil
}

// SweepPendingReleases retries every release still flagged in the store and
// returns how many completed. Sessions that still fail are queued.
func (m *DefaultLifecycleManager) SweepPendingReleases(ctx context.Context) (int, error) {
	pending, err := m.Sessions.ListReleasePending(ctx)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindInternal, err, "list pending releases")
	}
	done := 0
	for i := range pending {
		s := &pending[i]
		if err := m.releaseSlot(ctx, s); err != nil {
			m.Logger.Warn("Sweep could not release slot", zap.String("sessionId", s.ID), zap.Error(err))
			m.queueRelease(ctx, s)
			continue
		}
		m.Metrics.ObserveRelease("sweep")
		done++
	}
	if len(pending) > 0 {
		m.Logger.Info("Pending slot releases swept", zap.Int("found", len(pending)), zap.Int("released", done))
	}
	return done, nil
}
