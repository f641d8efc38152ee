package notify

import (
	"context"

	"procurement-backend/internal/usecase/workflow"
)

// Multi fans an event out to every notifier in order.
type Multi []workflow.Notifier

func (m Multi) Notify(ctx context.Context, e workflow.Event) {
	for _, n := range m {
		n.Notify(ctx, e)
	}
}
