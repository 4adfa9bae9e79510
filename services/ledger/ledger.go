package ledger

import (
	"context"
	"errors"

	"therapy/apperrors"
	"therapy/database"
	"therapy/models"

	"go.uber.org/zap"
)

func (l *DefaultSlotLedger) CreateSlot(ctx context.Context, owner models.Actor, date, timeRange string) (*models.Slot, error) {
	if owner.Role != models.RoleTherapist {
		return nil, apperrors.New(apperrors.KindForbidden, "only therapists can offer slots")
	}
	if err := models.ValidateSlotWindow(date, timeRange); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, err, "create slot")
	}

	slot := &models.Slot{
		OwnerID:   owner.ID,
		Date:      date,
		TimeRange: timeRange,
		CreatedAt: l.Now().UTC(),
	}
	if err := l.Repo.Create(ctx, slot); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperrors.New(apperrors.KindDuplicateSlot, "slot %s %s already exists", date, timeRange)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "create slot")
	}
	l.invalidate(ctx, slot.OwnerID, slot.Date)
	l.Logger.Info("Slot created", zap.String("slotId", slot.ID), zap.String("ownerId", slot.OwnerID),
		zap.String("date", date), zap.String("timeRange", timeRange))
	return slot, nil
}

func (l *DefaultSlotLedger) GetSlot(ctx context.Context, slotID string) (*models.Slot, error) {
	slot, err := l.Repo.GetByID(ctx, slotID)
	if err != nil {
		return nil, translate(err, "slot %s", slotID)
	}
	return slot, nil
}

func (l *DefaultSlotLedger) ListSlots(ctx context.Context, ownerID, from, to string) ([]models.Slot, error) {
	if ownerID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "therapist id is required")
	}
	slots, err := l.Repo.ListByOwner(ctx, ownerID, from, to)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "list slots")
	}
	return slots, nil
}

func (l *DefaultSlotLedger) ListAvailable(ctx context.Context, ownerID, date string) ([]models.Slot, error) {
	if cached, ok := l.cached(ctx, ownerID, date); ok {
		return cached, nil
	}
	slots, err := l.Repo.ListAvailable(ctx, ownerID, date)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "list available slots")
	}
	l.store(ctx, ownerID, date, slots)
	return slots, nil
}

// Reserve is a single conditional write on reserved=false. Of any number of
// concurrent callers on one slot exactly one wins; the rest get Conflict.
func (l *DefaultSlotLedger) Reserve(ctx context.Context, slotID, patientID, sessionID string) (*models.Slot, error) {
	slot, err := l.Repo.TryReserve(ctx, slotID, patientID, sessionID, l.Now().UTC())
	switch {
	case err == nil:
		l.Metrics.ObserveReservation("won")
	case errors.Is(err, database.ErrReserved):
		l.Metrics.ObserveReservation("conflict")
		l.Logger.Warn("Slot reservation lost", zap.String("slotId", slotID), zap.String("patientId", patientID))
		return nil, apperrors.New(apperrors.KindConflict, "slot %s is already reserved", slotID)
	case errors.Is(err, database.ErrNotFound):
		l.Metrics.ObserveReservation("not_found")
		return nil, apperrors.New(apperrors.KindNotFound, "slot %s not found", slotID)
	default:
		l.Metrics.ObserveReservation("error")
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "reserve slot %s", slotID)
	}
	l.invalidate(ctx, slot.OwnerID, slot.Date)
	l.Logger.Info("Slot reserved", zap.String("slotId", slotID), zap.String("patientId", patientID),
		zap.String("sessionId", sessionID))
	return slot, nil
}

// Release frees a slot. Releasing a free slot is a no-op.
func (l *DefaultSlotLedger) Release(ctx context.Context, slotID string) error {
	if err := l.Repo.Release(ctx, slotID); err != nil {
		return translate(err, "release slot %s", slotID)
	}
	l.invalidateSlot(ctx, slotID)
	l.Logger.Info("Slot released", zap.String("slotId", slotID))
	return nil
}

func (l *DefaultSlotLedger) ReleaseFor(ctx context.Context, slotID, sessionID string) error {
	changed, err := l.Repo.ReleaseReservation(ctx, slotID, sessionID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "release slot %s", slotID)
	}
	if changed {
		l.invalidateSlot(ctx, slotID)
		l.Logger.Info("Slot released", zap.String("slotId", slotID), zap.String("sessionId", sessionID))
	}
	return nil
}

func (l *DefaultSlotLedger) RemoveSlot(ctx context.Context, actor models.Actor, slotID string) error {
	slot, err := l.Repo.GetByID(ctx, slotID)
	if err != nil {
		return translate(err, "slot %s", slotID)
	}
	if slot.OwnerID != actor.ID {
		return apperrors.New(apperrors.KindForbidden, "slot %s belongs to another therapist", slotID)
	}
	if err := l.Repo.DeleteIfFree(ctx, slotID); err != nil {
		if errors.Is(err, database.ErrReserved) {
			return apperrors.New(apperrors.KindSlotInUse, "slot %s is reserved", slotID)
		}
		return translate(err, "remove slot %s", slotID)
	}
	l.invalidate(ctx, slot.OwnerID, slot.Date)
	l.Logger.Info("Slot removed", zap.String("slotId", slotID), zap.String("ownerId", slot.OwnerID))
	return nil
}

func translate(err error, format string, args ...interface{}) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperrors.New(apperrors.KindNotFound, format+" not found", args...)
	}
	return apperrors.Wrap(apperrors.KindInternal, err, format, args...)
}
