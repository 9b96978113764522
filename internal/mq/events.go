package mq

import (
	"context"
	"encoding/json"

	"github.com/chorsey/apiserver/types"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Message attributes set on every task event.
const (
	AttrEventType = "event_type"
	AttrTaskID    = "task_id"
)

// publisher is the subset of MQ used by TaskPublisher.
type publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// TaskPublisher publishes task events as JSON to a channel.
type TaskPublisher struct {
	mq      publisher
	channel string
	log     hclog.Logger
}

func NewTaskPublisher(mq publisher, channel string, logger hclog.Logger) *TaskPublisher {
	return &TaskPublisher{mq: mq, channel: channel, log: logger.Named("mq")}
}

// NotifyTask publishes the event. Failures are logged and dropped.
func (p *TaskPublisher) NotifyTask(ctx context.Context, event types.TaskEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to encode task event", "task_id", event.Task.ID, "error", err)
		return
	}

	id, err := p.mq.Publish(ctx, p.channel, data, map[string]string{
		AttrEventType: string(event.Type),
		AttrTaskID:    event.Task.ID,
	})
	if err != nil {
		p.log.Warn("failed to publish task event", "channel", p.channel, "task_id", event.Task.ID, "error", err)
		return
	}
	p.log.Debug("published task event", "channel", p.channel, "message_id", id, "type", event.Type)
}

// DecodeTaskEvent parses a message produced by TaskPublisher.
func DecodeTaskEvent(msg Message) (types.TaskEvent, error) {
	var event types.TaskEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.TaskEvent{}, errors.Wrapf(err, "decode task event %s", msg.ID)
	}
	return event, nil
}
