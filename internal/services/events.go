package services

import (
	"context"

	"github.com/chorsey/apiserver/types"
)

// Notifier receives task events after a mutation has been committed.
// Delivery is best effort: implementations log their own failures and
// never fail the mutation.
type Notifier interface {
	NotifyTask(ctx context.Context, event types.TaskEvent)
}

// Notifiers fans an event out to several notifiers.
type Notifiers []Notifier

// NotifyTask delivers the event to every notifier in order.
func (n Notifiers) NotifyTask(ctx context.Context, event types.TaskEvent) {
	for _, notifier := range n {
		notifier.NotifyTask(ctx, event)
	}
}
