package lifecycle

import (
	"context"
	"time"

	"therapy/database/repository"
	"therapy/models"
	"therapy/observability"
	"therapy/services/ledger"
	"therapy/services/notification"
	"therapy/services/tasks"

	"go.uber.org/zap"
)

// LifecycleManager owns session status transitions. Slot reservation changes
// are delegated to the ledger.
type LifecycleManager interface {
	Book(ctx context.Context, patient models.Actor, slotID string) (*models.Session, error)
	RequestSession(ctx context.Context, patient models.Actor, therapistID, date, clock string) (*models.Session, error)
	Confirm(ctx context.Context, actor models.Actor, sessionID string) (*models.Session, error)
	Decline(ctx context.Context, actor models.Actor, sessionID, reason string) (*models.Session, error)
	Cancel(ctx context.Context, actor models.Actor, sessionID, reason string) (*models.Session, error)
	Complete(ctx context.Context, actor models.Actor, sessionID, notes string) (*models.Session, error)
	AddNote(ctx context.Context, actor models.Actor, sessionID, text string) (*models.Session, error)
	Get(ctx context.Context, actor models.Actor, sessionID string) (*models.Session, error)
	List(ctx context.Context, actor models.Actor, status models.SessionStatus) ([]models.Session, error)
}

// Copywriter supplies friendlier notification text. It must not block for
// long and must fall back on its own when generation fails.
type Copywriter interface {
	ConfirmationMessage(ctx context.Context, s *models.Session) string
}

// DefaultLifecycleManager implements LifecycleManager.
type DefaultLifecycleManager struct {
	Ledger   ledger.SlotLedger
	Sessions repository.SessionRepository
	Tasks    tasks.Enqueuer
	Events   *notification.Publisher
	Copy     Copywriter
	Metrics  *observability.Metrics
	Logger   *zap.Logger

	// ReminderLead is how long before the start a reminder fires; zero
	// disables reminders.
	ReminderLead time.Duration
	Location     *time.Location
	Now          func() time.Time
}

// NewLifecycleManager wires a manager with defaults for the optional fields.
func NewLifecycleManager(l ledger.SlotLedger, sessions repository.SessionRepository, enqueuer tasks.Enqueuer, events *notification.Publisher, logger *zap.Logger) *DefaultLifecycleManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultLifecycleManager{
		Ledger:   l,
		Sessions: sessions,
		Tasks:    enqueuer,
		Events:   events,
		Logger:   logger,
		Location: time.UTC,
		Now:      time.Now,
	}
}
