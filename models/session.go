package models

import "time"

// SessionStatus is the appointment lifecycle state.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Terminal reports whether no further status transition is possible.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionConfirmed, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Role identifies which side of a session an actor is on.
type Role string

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "therapist"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SessionNote is an append-only remark attached to a session.
type SessionNote struct {
	ID        string    `bson:"id" json:"id"`
	AuthorID  string    `bson:"authorId" json:"authorId"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Session is a scheduled appointment between one patient and one therapist.
type Session struct {
	ID            string        `bson:"id" json:"id"`
	PatientID     string        `bson:"patientId" json:"patientId"`
	TherapistID   string        `bson:"therapistId" json:"therapistId"`
	SlotID        string        `bson:"slotId,omitempty" json:"slotId,omitempty"`
	ScheduledDate string        `bson:"scheduledDate" json:"scheduledDate"`
	ScheduledTime string        `bson:"scheduledTime" json:"scheduledTime"`
	Status        SessionStatus `bson:"status" json:"status"`
	Notes         []SessionNote `bson:"notes,omitempty" json:"notes,omitempty"`
	Call          CallState     `bson:"call" json:"call"`

	CancelledBy  string `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancelReason string `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	// SlotReleasePending is set together with the cancelled status and
	// cleared once the bound slot has been released.
	SlotReleasePending bool `bson:"slotReleasePending,omitempty" json:"-"`

	Version     int        `bson:"version" json:"version"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	ConfirmedAt *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}

// RoleOf returns the role userID plays in the session, or "" if none.
func (s *Session) RoleOf(userID string) Role {
	switch userID {
	case "":
		return ""
	case s.PatientID:
		return RolePatient
	case s.TherapistID:
		return RoleTherapist
	}
	return ""
}

// IsParty reports whether userID is the session's patient or therapist.
func (s *Session) IsParty(userID string) bool {
	return s.RoleOf(userID) != ""
}

// Counterparty returns the other party of userID, or "" if userID is not a party.
func (s *Session) Counterparty(userID string) string {
	switch s.RoleOf(userID) {
	case RolePatient:
		return s.TherapistID
	case RoleTherapist:
		return s.PatientID
	}
	return ""
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (s *Session) Clone() *Session {
	c := *s
	if s.Notes != nil {
		c.Notes = append([]SessionNote(nil), s.Notes...)
	}
	c.Call = s.Call.clone()
	c.ConfirmedAt = cloneTime(s.ConfirmedAt)
	c.CompletedAt = cloneTime(s.CompletedAt)
	c.CancelledAt = cloneTime(s.CancelledAt)
	return &c
}

// BookSessionRequest books a slot, or requests an ad-hoc session when SlotID is empty.
type BookSessionRequest struct {
	SlotID        string `json:"slotId"`
	TherapistID   string `json:"therapistId"`
	ScheduledDate string `json:"scheduledDate"`
	ScheduledTime string `json:"scheduledTime"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	PatientID   string
	TherapistID string
	Status      SessionStatus
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
