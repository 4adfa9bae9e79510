package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"therapy/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (s *stubClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	s.opts = append(s.opts, opts)
	return &asynq.TaskInfo{ID: "x"}, nil
}

func TestSlotReleaseTask(t *testing.T) {
	task, opts, err := NewSlotReleaseTask(models.SlotReleasePayload{SessionID: "s1", SlotID: "slot1"})
	require.NoError(t, err)
	assert.Equal(t, TypeSlotRelease, task.Type())

	var p models.SlotReleasePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "slot1", p.SlotID)

	var gotID, gotQueue string
	for _, o := range opts {
		switch o.Type() {
		case asynq.TaskIDOpt:
			gotID = o.Value().(string)
		case asynq.QueueOpt:
			gotQueue = o.Value().(string)
		}
	}
	assert.Equal(t, "slot-release:s1", gotID)
	assert.Equal(t, QueueCritical, gotQueue)
}

func TestReleaseRetryDelayIsCapped(t *testing.T) {
	assert.Equal(t, 10*time.Second, ReleaseRetryDelay(0, nil, nil))
	assert.Equal(t, 5*time.Minute, ReleaseRetryDelay(100, nil, nil))
}

func TestEnqueuerSchedulesReminder(t *testing.T) {
	client := &stubClient{}
	e := NewAsynqEnqueuer(client)
	fireAt := time.Date(2025, 6, 1, 9, 45, 0, 0, time.UTC)

	require.NoError(t, e.ScheduleReminder(context.Background(), "s1", fireAt))
	require.Len(t, client.tasks, 1)
	assert.Equal(t, TypeSendReminder, client.tasks[0].Type())

	var p models.ReminderPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &p))
	assert.Equal(t, "s1", p.SessionID)
	assert.Equal(t, "2025-06-01T09:45:00Z", p.FireAt)
}

func TestEnqueuerIgnoresDuplicateTaskID(t *testing.T) {
	e := NewAsynqEnqueuer(&stubClient{err: asynq.ErrTaskIDConflict})
	assert.NoError(t, e.EnqueueSlotRelease(context.Background(), models.SlotReleasePayload{SessionID: "s1"}))

	e = NewAsynqEnqueuer(&stubClient{err: errors.New("redis down")})
	assert.Error(t, e.EnqueueSlotRelease(context.Background(), models.SlotReleasePayload{SessionID: "s1"}))
}

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) EnqueueContext(_ context.Context, _ *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	s.calls++
	if len(s.errs) == 0 {
		return &asynq.TaskInfo{ID: "x"}, nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return nil, err
}

type stubInspector struct {
	state   asynq.TaskState
	deleted []string
}

func (s *stubInspector) GetTaskInfo(queue, id string) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{ID: id, Queue: queue, State: s.state}, nil
}

func (s *stubInspector) DeleteTask(queue, id string) error {
	s.deleted = append(s.deleted, queue+"/"+id)
	return nil
}

func TestEnqueueSlotReleaseReplacesArchivedTask(t *testing.T) {
	client := &scriptedClient{errs: []error{asynq.ErrTaskIDConflict}}
	insp := &stubInspector{state: asynq.TaskStateArchived}
	e := NewAsynqEnqueuer(client)
	e.Inspector = insp

	require.NoError(t, e.EnqueueSlotRelease(context.Background(), models.SlotReleasePayload{SessionID: "s1", SlotID: "a"}))
	assert.Equal(t, []string{QueueCritical + "/slot-release:s1"}, insp.deleted)
	assert.Equal(t, 2, client.calls)
}

func TestEnqueueSlotReleaseKeepsLiveTask(t *testing.T) {
	for _, state := range []asynq.TaskState{asynq.TaskStatePending, asynq.TaskStateRetry, asynq.TaskStateActive} {
		client := &scriptedClient{errs: []error{asynq.ErrTaskIDConflict}}
		insp := &stubInspector{state: state}
		e := NewAsynqEnqueuer(client)
		e.Inspector = insp

		require.NoError(t, e.EnqueueSlotRelease(context.Background(), models.SlotReleasePayload{SessionID: "s1"}), state.String())
		assert.Empty(t, insp.deleted, state.String())
		assert.Equal(t, 1, client.calls, state.String())
	}
}
