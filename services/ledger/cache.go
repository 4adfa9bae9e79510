package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"therapy/models"

	"go.uber.org/zap"
)

const availablePrefix = "slots:available:"

func availableKey(ownerID, date string) string {
	return fmt.Sprintf("%s%s:%s", availablePrefix, ownerID, date)
}

// cached returns the cached available list. Any cache failure counts as a miss.
func (l *DefaultSlotLedger) cached(ctx context.Context, ownerID, date string) ([]models.Slot, bool) {
	if l.Cache == nil {
		return nil, false
	}
	raw, err := l.Cache.Get(ctx, availableKey(ownerID, date)).Bytes()
	if err != nil {
		l.Metrics.ObserveSlotCache(false)
		return nil, false
	}
	var slots []models.Slot
	if err := json.Unmarshal(raw, &slots); err != nil {
		l.Metrics.ObserveSlotCache(false)
		return nil, false
	}
	l.Metrics.ObserveSlotCache(true)
	return slots, true
}

func (l *DefaultSlotLedger) store(ctx context.Context, ownerID, date string, slots []models.Slot) {
	if l.Cache == nil {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := l.Cache.Set(ctx, availableKey(ownerID, date), raw, l.CacheTTL).Err(); err != nil {
		l.Logger.Debug("Available slot cache write failed", zap.Error(err))
	}
}

// invalidate drops every cached list that could contain a slot of ownerID on
// date, including the unfiltered variants.
func (l *DefaultSlotLedger) invalidate(ctx context.Context, ownerID, date string) {
	if l.Cache == nil {
		return
	}
	keys := []string{
		availableKey(ownerID, date),
		availableKey(ownerID, ""),
		availableKey("", date),
		availableKey("", ""),
	}
	if err := l.Cache.Del(ctx, keys...).Err(); err != nil {
		l.Logger.Warn("Available slot cache invalidation failed", zap.Error(err))
	}
}

func (l *DefaultSlotLedger) invalidateSlot(ctx context.Context, slotID string) {
	if l.Cache == nil {
		return
	}
	slot, err := l.Repo.GetByID(ctx, slotID)
	if err != nil {
		return
	}
	l.invalidate(ctx, slot.OwnerID, slot.Date)
}
