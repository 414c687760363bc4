// Package realtime keeps a connected client's notification view in sync with
// the per-recipient push channel.
package realtime

import (
	"context"

	"github.com/deskflow/helpdesk-portal/internal/domain"
)

// Subscription is one live attachment to a recipient's channel. The first
// batch on Batches is a replay of the recipient's current notifications; later
// batches are deltas. Delivery is at least once. Both channels are closed when
// the subscription ends.
type Subscription interface {
	Batches() <-chan []domain.Notification
	UnreadCounts() <-chan int
	Close() error
}

// Feed opens subscriptions to a recipient's push channel.
type Feed interface {
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}
