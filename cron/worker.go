package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"therapy/apperrors"
	"therapy/config"
	"therapy/models"
	"therapy/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// SessionJobs is the lifecycle work the worker runs.
type SessionJobs interface {
	RetrySlotRelease(ctx context.Context, sessionID string) error
	SendReminder(ctx context.Context, sessionID string) error
}

// Worker runs queued slot releases and session reminders.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// RedisOpt returns the asynq connection for the task queue database.
func RedisOpt(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
}

func NewWorker(cfg config.Config, jobs SessionJobs, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := asynq.NewServer(
		RedisOpt(cfg),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueCritical: 6,
				"default":           1,
			},
			RetryDelayFunc: tasks.ReleaseRetryDelay,
			Logger:         logger.Sugar(),
		},
	)
	return &Worker{srv: srv, mux: NewMux(jobs, logger), logger: logger}
}

// NewMux routes task types to their handlers.
func NewMux(jobs SessionJobs, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSlotRelease, handleSlotRelease(jobs, logger))
	mux.HandleFunc(tasks.TypeSendReminder, handleReminder(jobs, logger))
	return mux
}

// Start launches the worker, retrying the startup a few times with backoff.
func (w *Worker) Start() error {
	const maxAttempts = 5
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = w.srv.Start(w.mux); err == nil {
			w.logger.Info("Task worker started")
			return nil
		}
		w.logger.Warn("Task worker failed to start",
			zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
		time.Sleep(time.Duration(attempt*2) * time.Second)
	}
	return fmt.Errorf("start task worker: %w", err)
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
	w.logger.Info("Task worker stopped")
}

func handleSlotRelease(jobs SessionJobs, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.SlotReleasePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil || p.SessionID == "" {
			logger.Error("Invalid slot release payload", zap.ByteString("payload", task.Payload()), zap.Error(err))
			return fmt.Errorf("invalid slot release payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := jobs.RetrySlotRelease(ctx, p.SessionID); err != nil {
			logger.Error("Slot release attempt failed, will retry",
				zap.String("sessionId", p.SessionID), zap.String("slotId", p.SlotID), zap.Error(err))
			return err
		}
		return nil
	}
}

func handleReminder(jobs SessionJobs, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil || p.SessionID == "" {
			logger.Error("Invalid reminder payload", zap.ByteString("payload", task.Payload()), zap.Error(err))
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}
		err := jobs.SendReminder(ctx, p.SessionID)
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Info("Reminder for unknown session dropped", zap.String("sessionId", p.SessionID))
			return nil
		}
		if err != nil {
			logger.Warn("Reminder failed", zap.String("sessionId", p.SessionID), zap.Error(err))
		}
		return err
	}
}
