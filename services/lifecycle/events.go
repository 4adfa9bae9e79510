package lifecycle

import (
	"context"
	"time"

	"therapy/models"
	"therapy/services/notification"

	"go.uber.org/zap"
)

func sessionEvent(eventType, recipientID string, s *models.Session) models.Notification {
	return notification.SessionEvent(eventType, recipientID, s)
}

func (m *DefaultLifecycleManager) publish(eventType, recipientID string, s *models.Session) {
	m.Events.Publish(sessionEvent(eventType, recipientID, s), nil)
}

// enrichConfirmation swaps in generated copy when a Copywriter is set.
func (m *DefaultLifecycleManager) enrichConfirmation(s *models.Session) func(context.Context, *models.Notification) {
	if m.Copy == nil {
		return nil
	}
	return func(ctx context.Context, n *models.Notification) {
		if msg := m.Copy.ConfirmationMessage(ctx, s); msg != "" {
			n.Body = msg
		}
	}
}

// scheduleReminder queues a push ReminderLead before the session starts.
// Failures are logged; a missed reminder never fails a confirmation.
func (m *DefaultLifecycleManager) scheduleReminder(ctx context.Context, s *models.Session) {
	if m.Tasks == nil || m.ReminderLead <= 0 {
		return
	}
	start, err := models.StartsAt(s.ScheduledDate, s.ScheduledTime, m.location())
	if err != nil {
		m.Logger.Warn("Cannot schedule reminder", zap.String("sessionId", s.ID), zap.Error(err))
		return
	}
	fireAt := start.Add(-m.ReminderLead)
	if !fireAt.After(m.Now()) {
		return
	}
	if err := m.Tasks.ScheduleReminder(ctx, s.ID, fireAt); err != nil {
		m.Logger.Warn("Failed to schedule reminder", zap.String("sessionId", s.ID), zap.Error(err))
	}
}

// SendReminder pushes the reminder to both parties if the session is still
// confirmed when the task fires.
func (m *DefaultLifecycleManager) SendReminder(ctx context.Context, sessionID string) error {
	s, err := m.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return translate(err, sessionID)
	}
	if s.Status != models.SessionConfirmed {
		m.Logger.Debug("Reminder skipped", zap.String("sessionId", sessionID), zap.String("status", string(s.Status)))
		return nil
	}
	m.publish(models.EventSessionReminder, s.PatientID, s)
	m.publish(models.EventSessionReminder, s.TherapistID, s)
	return nil
}

func (m *DefaultLifecycleManager) location() *time.Location {
	if m.Location == nil {
		return time.UTC
	}
	return m.Location
}
