package lifecycle

import (
	"context"
	"errors"

	"therapy/apperrors"
	"therapy/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Book reserves slotID for the patient and creates a pending session bound
// to it. Losing the reservation race yields SlotUnavailable; the caller
// should re-read and pick another slot.
func (m *DefaultLifecycleManager) Book(ctx context.Context, patient models.Actor, slotID string) (s *models.Session, err error) {
	defer func() { m.Metrics.ObserveTransition("book", err) }()

	if patient.Role != models.RolePatient {
		return nil, apperrors.New(apperrors.KindForbidden, "only patients can book sessions")
	}
	if slotID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "slot id is required")
	}

	sessionID := uuid.New().String()
	slot, err := m.Ledger.Reserve(ctx, slotID, patient.ID, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Wrap(apperrors.KindSlotUnavailable, err, "slot %s is no longer available", slotID)
		}
		return nil, err
	}

	now := m.Now().UTC()
	s = &models.Session{
		ID:            sessionID,
		PatientID:     patient.ID,
		TherapistID:   slot.OwnerID,
		SlotID:        slot.ID,
		ScheduledDate: slot.Date,
		ScheduledTime: slot.TimeRange,
		Status:        models.SessionPending,
		Call:          models.NewCallState(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.Sessions.Insert(ctx, s); err != nil {
		// Give the capacity back; the session never existed.
		if relErr := m.Ledger.ReleaseFor(ctx, slot.ID, sessionID); relErr != nil {
			m.Logger.Error("Failed to release slot after aborted booking",
				zap.String("slotId", slot.ID), zap.String("sessionId", sessionID), zap.Error(relErr))
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "create session")
	}

	m.Logger.Info("Session booked", zap.String("sessionId", s.ID), zap.String("slotId", slot.ID),
		zap.String("patientId", patient.ID), zap.String("therapistId", s.TherapistID))
	m.publish(models.EventSessionBooked, s.TherapistID, s)
	return s, nil
}

// RequestSession creates a pending session that is not bound to any slot.
func (m *DefaultLifecycleManager) RequestSession(ctx context.Context, patient models.Actor, therapistID, date, clock string) (s *models.Session, err error) {
	defer func() { m.Metrics.ObserveTransition("request_session", err) }()

	if patient.Role != models.RolePatient {
		return nil, apperrors.New(apperrors.KindForbidden, "only patients can request sessions")
	}
	if therapistID == "" || therapistID == patient.ID {
		return nil, apperrors.New(apperrors.KindInvalidInput, "a therapist id other than the patient's is required")
	}
	if _, err := models.StartsAt(date, clock, m.location()); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, err, "invalid schedule %q %q", date, clock)
	}

	now := m.Now().UTC()
	s = &models.Session{
		ID:            uuid.New().String(),
		PatientID:     patient.ID,
		TherapistID:   therapistID,
		ScheduledDate: date,
		ScheduledTime: clock,
		Status:        models.SessionPending,
		Call:          models.NewCallState(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.Sessions.Insert(ctx, s); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "create session")
	}

	m.Logger.Info("Session requested", zap.String("sessionId", s.ID),
		zap.String("patientId", patient.ID), zap.String("therapistId", therapistID))
	m.publish(models.EventSessionBooked, therapistID, s)
	return s, nil
}
