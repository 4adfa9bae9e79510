package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"therapy/apperrors"
	"therapy/models"
	"therapy/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeJobs struct {
	released []string
	reminded []string
	err      error
}

func (f *fakeJobs) RetrySlotRelease(ctx context.Context, sessionID string) error {
	f.released = append(f.released, sessionID)
	return f.err
}

func (f *fakeJobs) SendReminder(ctx context.Context, sessionID string) error {
	f.reminded = append(f.reminded, sessionID)
	return f.err
}

func payload(t *testing.T, v interface{}) []byte {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestMuxRoutesSlotRelease(t *testing.T) {
	jobs := &fakeJobs{}
	mux := NewMux(jobs, zap.NewNop())

	task := asynq.NewTask(tasks.TypeSlotRelease, payload(t, models.SlotReleasePayload{SessionID: "s1", SlotID: "slot-1"}))
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"s1"}, jobs.released)
}

func TestSlotReleaseFailureIsRetried(t *testing.T) {
	jobs := &fakeJobs{err: errors.New("mongo unavailable")}
	mux := NewMux(jobs, zap.NewNop())

	task := asynq.NewTask(tasks.TypeSlotRelease, payload(t, models.SlotReleasePayload{SessionID: "s1"}))
	err := mux.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestInvalidPayloadSkipsRetry(t *testing.T) {
	mux := NewMux(&fakeJobs{}, zap.NewNop())

	for _, typ := range []string{tasks.TypeSlotRelease, tasks.TypeSendReminder} {
		err := mux.ProcessTask(context.Background(), asynq.NewTask(typ, []byte("not json")))
		assert.ErrorIs(t, err, asynq.SkipRetry, typ)

		err = mux.ProcessTask(context.Background(), asynq.NewTask(typ, []byte(`{}`)))
		assert.ErrorIs(t, err, asynq.SkipRetry, typ)
	}
}

func TestReminderForMissingSessionIsDropped(t *testing.T) {
	jobs := &fakeJobs{err: apperrors.New(apperrors.KindNotFound, "session s1 not found")}
	mux := NewMux(jobs, zap.NewNop())

	task := asynq.NewTask(tasks.TypeSendReminder, payload(t, models.ReminderPayload{SessionID: "s1"}))
	assert.NoError(t, mux.ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"s1"}, jobs.reminded)
}
