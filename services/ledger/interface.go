package ledger

import (
	"context"
	"time"

	"therapy/database/repository"
	"therapy/models"
	"therapy/observability"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SlotLedger owns reservation state for therapist slots. It is the only
// component that writes a slot's reserved flag.
type SlotLedger interface {
	CreateSlot(ctx context.Context, owner models.Actor, date, timeRange string) (*models.Slot, error)
	GetSlot(ctx context.Context, slotID string) (*models.Slot, error)
	ListSlots(ctx context.Context, ownerID, from, to string) ([]models.Slot, error)
	ListAvailable(ctx context.Context, ownerID, date string) ([]models.Slot, error)
	Reserve(ctx context.Context, slotID, patientID, sessionID string) (*models.Slot, error)
	Release(ctx context.Context, slotID string) error
	// ReleaseFor frees the slot only while sessionID still holds it.
	ReleaseFor(ctx context.Context, slotID, sessionID string) error
	RemoveSlot(ctx context.Context, actor models.Actor, slotID string) error
}

// DefaultSlotLedger implements SlotLedger on a SlotRepository. Cache is
// optional and only ever holds a disposable copy of available slots.
type DefaultSlotLedger struct {
	Repo     repository.SlotRepository
	Cache    *redis.Client
	CacheTTL time.Duration
	Metrics  *observability.Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewSlotLedger wires a ledger with defaults for the optional fields.
func NewSlotLedger(repo repository.SlotRepository, cache *redis.Client, cacheTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *DefaultSlotLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &DefaultSlotLedger{
		Repo:     repo,
		Cache:    cache,
		CacheTTL: cacheTTL,
		Metrics:  metrics,
		Logger:   logger,
		Now:      time.Now,
	}
}
