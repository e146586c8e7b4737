// Package notify dispatches "event imported" notifications to chat channels
// without blocking the import run.
package notify

import (
	"context"
	"strings"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/infra/notifier"
)

// Channel is a notification destination.
type Channel interface {
	Name() string
	IsEnabled() bool
	Send(ctx context.Context, event *entity.Event, source *entity.Source) error
}

// WebhookChannel adapts a notifier.Notifier to Channel.
type WebhookChannel struct {
	name     string
	notifier notifier.Notifier
	enabled  bool
}

// NewDiscordChannel creates the "discord" channel. A disabled config gets a
// no-op notifier.
func NewDiscordChannel(config notifier.WebhookConfig) *WebhookChannel {
	if !config.Enabled {
		return &WebhookChannel{name: "discord", notifier: notifier.NewNoOpNotifier()}
	}
	return &WebhookChannel{name: "discord", notifier: notifier.NewDiscordNotifier(config), enabled: true}
}

// NewSlackChannel creates the "slack" channel.
func NewSlackChannel(config notifier.WebhookConfig) *WebhookChannel {
	if !config.Enabled {
		return &WebhookChannel{name: "slack", notifier: notifier.NewNoOpNotifier()}
	}
	return &WebhookChannel{name: "slack", notifier: notifier.NewSlackNotifier(config), enabled: true}
}

// NewChannel wraps an arbitrary notifier.
func NewChannel(name string, n notifier.Notifier, enabled bool) *WebhookChannel {
	return &WebhookChannel{name: name, notifier: n, enabled: enabled}
}

// Name returns the channel identifier.
func (c *WebhookChannel) Name() string { return c.name }

// IsEnabled reports whether the channel is configured.
func (c *WebhookChannel) IsEnabled() bool { return c.enabled }

// Send validates its input and delegates to the notifier.
func (c *WebhookChannel) Send(ctx context.Context, event *entity.Event, source *entity.Source) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if event == nil || strings.TrimSpace(event.Title) == "" {
		return ErrInvalidEvent
	}
	if source == nil {
		return ErrInvalidSource
	}
	return c.notifier.NotifyEvent(ctx, event, source)
}
