package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"therapy/models"

	"go.uber.org/zap"
)

// Publisher delivers notifications in the background so a slow or failing
// push never holds up a state transition. A nil *Publisher drops everything.
type Publisher struct {
	service NotificationService
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewPublisher(service NotificationService, timeout time.Duration, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Publisher{service: service, timeout: timeout, logger: logger, now: time.Now}
}

// Publish sends n asynchronously. enrich, when set, runs inside the same
// goroutine and may rewrite the title or body (e.g. with generated copy).
func (p *Publisher) Publish(n models.Notification, enrich func(ctx context.Context, n *models.Notification)) {
	if p == nil || p.service == nil || n.RecipientID == "" {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = p.now().UTC()
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if enrich != nil {
			enrich(ctx, &n)
		}
		if err := p.service.Notify(ctx, n); err != nil {
			if errors.Is(err, ErrNoPushTarget) {
				p.logger.Debug("Notification skipped", zap.String("recipientId", n.RecipientID), zap.String("type", n.Type))
				return
			}
			p.logger.Warn("Notification failed", zap.String("recipientId", n.RecipientID),
				zap.String("type", n.Type), zap.Error(err))
		}
	}()
}

// Wait blocks until every in-flight notification has finished.
func (p *Publisher) Wait() {
	if p == nil {
		return
	}
	p.wg.Wait()
}
