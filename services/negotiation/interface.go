package negotiation

import (
	"context"
	"time"

	"therapy/database/repository"
	"therapy/models"
	"therapy/observability"
	"therapy/services/notification"

	"go.uber.org/zap"
)

// DefaultCooldown is how long an unanswered request blocks a new one.
const DefaultCooldown = 5 * time.Minute

// DefaultActivationLease bounds how long one caller may hold the right to
// provision a room before another may try.
const DefaultActivationLease = 30 * time.Second

// Negotiator runs the call handshake embedded in a confirmed session.
type Negotiator interface {
	Request(ctx context.Context, actor models.Actor, sessionID string) (*models.Session, error)
	Respond(ctx context.Context, actor models.Actor, sessionID string, decision models.CallDecision) (*models.Session, error)
	Activate(ctx context.Context, actor models.Actor, sessionID string) (*models.Session, error)
	End(ctx context.Context, actor models.Actor, sessionID string) (*models.Session, error)
}

// RoomProvider provisions a call room and returns its handle.
type RoomProvider interface {
	CreateRoom(ctx context.Context) (string, error)
}

// DefaultNegotiator implements Negotiator. It is the only writer of a
// session's call state.
type DefaultNegotiator struct {
	Sessions repository.SessionRepository
	Provider RoomProvider
	Events   *notification.Publisher
	Metrics  *observability.Metrics
	Logger   *zap.Logger
	Cooldown time.Duration
	// ActivationLease should exceed the provider's request timeout.
	ActivationLease time.Duration
	Now             func() time.Time
}

func NewNegotiator(sessions repository.SessionRepository, provider RoomProvider, events *notification.Publisher, cooldown time.Duration, logger *zap.Logger) *DefaultNegotiator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &DefaultNegotiator{
		Sessions: sessions,
		Provider: provider,
		Events:   events,
		Logger:   logger,
		Cooldown: cooldown,

		ActivationLease: DefaultActivationLease,
		Now:             time.Now,
	}
}
