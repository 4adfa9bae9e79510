package models

import "time"

// NegotiationStatus is the request/response handshake state of a call.
type NegotiationStatus string

const (
	NegotiationNone     NegotiationStatus = "none"
	NegotiationPending  NegotiationStatus = "pending"
	NegotiationAccepted NegotiationStatus = "accepted"
	NegotiationDeclined NegotiationStatus = "declined"
)

// CallLifecycle tracks whether a room has been provisioned and used.
type CallLifecycle string

const (
	CallScheduled CallLifecycle = "scheduled"
	CallActive    CallLifecycle = "active"
	CallEnded     CallLifecycle = "ended"
)

// CallDecision is a counterparty's answer to a call request.
type CallDecision string

const (
	DecisionAccept  CallDecision = "accept"
	DecisionDecline CallDecision = "decline"
)

// CallNegotiation is embedded in a session's call state.
type CallNegotiation struct {
	Status      NegotiationStatus `bson:"status" json:"status"`
	RequestedBy string            `bson:"requestedBy,omitempty" json:"requestedBy,omitempty"`
	RequestedAt *time.Time        `bson:"requestedAt,omitempty" json:"requestedAt,omitempty"`
	RespondedAt *time.Time        `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// CallState is the call sub-state of a session. An active lifecycle always
// carries a room handle and an accepted negotiation.
type CallState struct {
	Negotiation CallNegotiation `bson:"negotiation" json:"negotiation"`
	RoomHandle  string          `bson:"roomHandle,omitempty" json:"roomHandle,omitempty"`
	Lifecycle   CallLifecycle   `bson:"lifecycle" json:"lifecycle"`
	StartedAt   *time.Time      `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	EndedAt     *time.Time      `bson:"endedAt,omitempty" json:"endedAt,omitempty"`

	// ActivatingUntil is set while one caller provisions the room; others
	// back off until it passes.
	ActivatingUntil *time.Time `bson:"activatingUntil,omitempty" json:"-"`
}

// NewCallState returns the call state of a freshly created session.
func NewCallState() CallState {
	return CallState{
		Negotiation: CallNegotiation{Status: NegotiationNone},
		Lifecycle:   CallScheduled,
	}
}

func (c CallState) clone() CallState {
	c.Negotiation.RequestedAt = cloneTime(c.Negotiation.RequestedAt)
	c.Negotiation.RespondedAt = cloneTime(c.Negotiation.RespondedAt)
	c.StartedAt = cloneTime(c.StartedAt)
	c.EndedAt = cloneTime(c.EndedAt)
	c.ActivatingUntil = cloneTime(c.ActivatingUntil)
	return c
}

// CallResponse is the body of a counterparty's decision.
type CallResponse struct {
	Decision CallDecision `json:"decision" binding:"required"`
}

// CallTokenResponse carries a participant token for joining rooms.
type CallTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
