// Package notifier posts "new event" messages to chat webhooks.
package notifier

import (
	"context"

	"sactech-events/internal/domain/entity"
)

// Notifier announces a newly imported event. Implementations rate limit and
// retry internally.
type Notifier interface {
	NotifyEvent(ctx context.Context, event *entity.Event, source *entity.Source) error
}

// NoOpNotifier stands in for a webhook that is not configured.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier { return &NoOpNotifier{} }

func (*NoOpNotifier) NotifyEvent(context.Context, *entity.Event, *entity.Source) error { return nil }
