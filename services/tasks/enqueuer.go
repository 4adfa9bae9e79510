package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"therapy/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer schedules background work for the session lifecycle.
type Enqueuer interface {
	EnqueueSlotRelease(ctx context.Context, payload models.SlotReleasePayload) error
	ScheduleReminder(ctx context.Context, sessionID string, fireAt time.Time) error
}

// TaskClient is the subset of *asynq.Client used by AsynqEnqueuer.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector is the subset of *asynq.Inspector used to clear a finished
// task that still holds a task id.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
}

type AsynqEnqueuer struct {
	client TaskClient

	// Inspector, when set, lets a release be queued again after an earlier
	// task for the same session was archived.
	Inspector TaskInspector
	Logger    *zap.Logger
}

func NewAsynqEnqueuer(client TaskClient) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client, Logger: zap.NewNop()}
}

// EnqueueSlotRelease queues one release task per session. A retained task
// that has stopped retrying is deleted and replaced, otherwise the slot would
// stay held for good.
func (e *AsynqEnqueuer) EnqueueSlotRelease(ctx context.Context, payload models.SlotReleasePayload) error {
	task, opts, err := NewSlotReleaseTask(payload)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, opts...)
	if !errors.Is(err, asynq.ErrTaskIDConflict) {
		return err
	}

	id := SlotReleaseTaskID(payload.SessionID)
	if e.Inspector == nil {
		e.logger().Error("Slot release task id taken, cannot check its state",
			zap.String("sessionId", payload.SessionID), zap.String("taskId", id))
		return nil
	}
	info, err := e.Inspector.GetTaskInfo(QueueCritical, id)
	if err != nil {
		return fmt.Errorf("inspect slot release task %s: %w", id, err)
	}
	switch info.State {
	case asynq.TaskStateArchived, asynq.TaskStateCompleted:
	default:
		// Still pending, scheduled, retrying or running.
		return nil
	}
	if err := e.Inspector.DeleteTask(QueueCritical, id); err != nil {
		return fmt.Errorf("delete finished slot release task %s: %w", id, err)
	}
	e.logger().Warn("Replacing finished slot release task", zap.String("sessionId", payload.SessionID),
		zap.String("previousState", info.State.String()))
	_, err = e.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func (e *AsynqEnqueuer) ScheduleReminder(ctx context.Context, sessionID string, fireAt time.Time) error {
	task, opts, err := NewReminderTask(models.ReminderPayload{
		SessionID: sessionID,
		FireAt:    fireAt.UTC().Format(time.RFC3339),
	}, fireAt)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func (e *AsynqEnqueuer) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
