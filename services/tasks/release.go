package tasks

import (
	"encoding/json"
	"time"

	"therapy/models"

	"github.com/hibiken/asynq"
)

const (
	TypeSlotRelease = "slot:release"

	// QueueCritical holds work that prevents a resource leak.
	QueueCritical = "critical"
)

// NewSlotReleaseTask retries the release of a cancelled session's slot until
// it succeeds. One task per session is kept by task id.
func NewSlotReleaseTask(payload models.SlotReleasePayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSlotRelease, b)
	opts := []asynq.Option{
		asynq.Queue(QueueCritical),
		asynq.TaskID(SlotReleaseTaskID(payload.SessionID)),
		asynq.MaxRetry(50),
		asynq.Retention(24 * time.Hour),
	}
	return task, opts, nil
}

// SlotReleaseTaskID is the task id that keeps one release task per session.
func SlotReleaseTaskID(sessionID string) string {
	return "slot-release:" + sessionID
}

// ReleaseRetryDelay backs off linearly up to five minutes.
func ReleaseRetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	d := time.Duration(n+1) * 10 * time.Second
	if d > 5*time.Minute {
		d = 5 * time.Minute
	}
	return d
}
