package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chorsey/apiserver/types"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakePublisher struct {
	messages []published
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, published{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

func TestTaskPublisher_NotifyTask(t *testing.T) {
	fake := &fakePublisher{}
	p := NewTaskPublisher(fake, "chorsey.tasks", hclog.NewNullLogger())
	event := types.TaskEvent{
		Type:           types.TaskStatusChanged,
		Task:           types.Task{ID: "task-4", Title: "Clean the TV screen", Status: types.TaskInProgress, AssignedTo: "user-2"},
		PreviousStatus: types.TaskPending,
		ActorID:        "user-2",
		OccurredAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	p.NotifyTask(context.Background(), event)

	require.Len(t, fake.messages, 1)
	msg := fake.messages[0]
	assert.Equal(t, "chorsey.tasks", msg.channel)
	assert.Equal(t, "task.status_changed", msg.attrs[AttrEventType])
	assert.Equal(t, "task-4", msg.attrs[AttrTaskID])

	decoded, err := DecodeTaskEvent(Message{ID: "msg-1", Data: msg.data})
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestTaskPublisher_PublishFailureIsDropped(t *testing.T) {
	fake := &fakePublisher{err: errors.New("broker down")}
	p := NewTaskPublisher(fake, "chorsey.tasks", hclog.NewNullLogger())

	assert.NotPanics(t, func() {
		p.NotifyTask(context.Background(), types.TaskEvent{Type: types.TaskCreated})
	})
}

func TestDecodeTaskEvent_Invalid(t *testing.T) {
	_, err := DecodeTaskEvent(Message{ID: "bad", Data: []byte("{")})

	assert.ErrorContains(t, err, "decode task event bad")
}
