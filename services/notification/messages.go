package notification

import (
	"fmt"

	"therapy/models"
)

// SessionEvent builds the notification for a session or call event.
func SessionEvent(eventType, recipientID string, s *models.Session) models.Notification {
	title, body := describe(eventType, s)
	return models.Notification{
		RecipientID: recipientID,
		Type:        eventType,
		Title:       title,
		Body:        body,
		Data: map[string]string{
			"sessionId": s.ID,
			"status":    string(s.Status),
		},
	}
}

func describe(eventType string, s *models.Session) (string, string) {
	when := fmt.Sprintf("%s at %s", s.ScheduledDate, s.ScheduledTime)
	switch eventType {
	case models.EventSessionBooked:
		return "New session request", fmt.Sprintf("A patient requested a session on %s.", when)
	case models.EventSessionConfirmed:
		return "Session confirmed", fmt.Sprintf("Your session on %s is confirmed.", when)
	case models.EventSessionCancelled:
		return "Session cancelled", fmt.Sprintf("The session on %s was cancelled.", when)
	case models.EventSessionCompleted:
		return "Session completed", "Your session has been marked as completed."
	case models.EventCallRequested:
		return "Incoming call request", "Your counterpart would like to start the video call."
	case models.EventCallAccepted:
		return "Call accepted", "Your call request was accepted. You can join now."
	case models.EventCallDeclined:
		return "Call declined", "Your call request was declined."
	case models.EventCallStarted:
		return "Call started", "The video room is ready."
	case models.EventCallEnded:
		return "Call ended", "The video call has ended."
	case models.EventSessionReminder:
		return "Upcoming session", fmt.Sprintf("Reminder: your session starts on %s.", when)
	}
	return "Session update", fmt.Sprintf("Your session on %s was updated.", when)
}
