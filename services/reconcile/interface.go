// Package reconcile keeps a client-side projection of slots and sessions
// that layers optimistic mutations over the last authoritative read.
package reconcile

import (
	"context"
	"time"

	"therapy/apperrors"
	"therapy/models"
)

// Snapshot is one consistent view of the store as seen by a client.
type Snapshot struct {
	Available []models.Slot
	Sessions  []models.Session
	ReadAt    time.Time
}

// Source performs authoritative reads.
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Snapshot, error)

func (f SourceFunc) Fetch(ctx context.Context) (Snapshot, error) { return f(ctx) }

// Token identifies an optimistic mutation.
type Token uint64

// Notice is surfaced to the user when a local mutation had to be rolled back.
type Notice struct {
	Token     Token          `json:"token"`
	Kind      apperrors.Kind `json:"kind"`
	SlotID    string         `json:"slotId,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Message   string         `json:"message"`
	At        time.Time      `json:"at"`
}

type mutationKind int

const (
	mutBook mutationKind = iota
	mutStatus
)

type mutationState int

const (
	// inFlight: the request has not returned yet.
	inFlight mutationState = iota
	// acknowledged: the server accepted it; awaiting the next read.
	acknowledged
	// unknown: the request failed without a definite answer.
	unknown
)

type mutation struct {
	token     Token
	kind      mutationKind
	state     mutationState
	slotID    string
	sessionID string
	status    models.SessionStatus
	session   *models.Session
	startedAt time.Time
}
