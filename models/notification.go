package models

import "time"

// Notification event types pushed to session parties.
const (
	EventSessionBooked    = "session_booked"
	EventSessionConfirmed = "session_confirmed"
	EventSessionCancelled = "session_cancelled"
	EventSessionCompleted = "session_completed"
	EventCallRequested    = "call_requested"
	EventCallAccepted     = "call_accepted"
	EventCallDeclined     = "call_declined"
	EventCallStarted      = "call_started"
	EventCallEnded        = "call_ended"
	EventSessionReminder  = "session_reminder"
)

type Notification struct {
	RecipientID string            `json:"recipientId"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// ReminderPayload is the asynq payload of a scheduled session reminder.
type ReminderPayload struct {
	SessionID string `json:"sessionId"`
	FireAt    string `json:"fireAt"`
}

// SlotReleasePayload is the asynq payload of a slot release retry.
type SlotReleasePayload struct {
	SessionID string `json:"sessionId"`
	SlotID    string `json:"slotId"`
}
