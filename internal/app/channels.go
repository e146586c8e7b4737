package app

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"sactech-events/internal/infra/notifier"
	"sactech-events/internal/pkg/config"
	"sactech-events/internal/usecase/notify"
)

const webhookTimeout = 30 * time.Second

// webhookRule pins a webhook URL to its provider's host and path prefix.
type webhookRule struct {
	name       string
	envPrefix  string
	host       string
	pathPrefix string
}

var (
	discordRule = webhookRule{name: "Discord", envPrefix: "DISCORD", host: "discord.com", pathPrefix: "/api/webhooks/"}
	slackRule   = webhookRule{name: "Slack", envPrefix: "SLACK", host: "hooks.slack.com", pathPrefix: "/services/"}
)

// loadChannels returns the enabled notification channels.
func loadChannels(logger *slog.Logger) []notify.Channel {
	var channels []notify.Channel
	if cfg := loadWebhookConfig(logger, discordRule); cfg.Enabled {
		channels = append(channels, notify.NewDiscordChannel(cfg))
	}
	if cfg := loadWebhookConfig(logger, slackRule); cfg.Enabled {
		channels = append(channels, notify.NewSlackChannel(cfg))
	}
	logger.Info("notification channels configured", slog.Int("channels", len(channels)))
	return channels
}

// loadWebhookConfig reads <PREFIX>_ENABLED and <PREFIX>_WEBHOOK_URL. A URL
// that is not https on the provider's host and path disables the channel.
func loadWebhookConfig(logger *slog.Logger, rule webhookRule) notifier.WebhookConfig {
	disabled := notifier.WebhookConfig{Enabled: false}

	enabled := config.LoadEnvBool(rule.envPrefix+"_ENABLED", false)
	if !enabled.Value.(bool) {
		return disabled
	}

	webhookURL := config.LoadEnvString(rule.envPrefix+"_WEBHOOK_URL", "")
	if webhookURL == "" {
		logger.Warn(rule.name + " webhook URL is empty, disabling notifications")
		return disabled
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		logger.Warn("Invalid "+rule.name+" webhook URL format, disabling notifications", slog.Any("error", err))
		return disabled
	}
	if u.Scheme != "https" {
		logger.Warn(rule.name + " webhook URL must use HTTPS, disabling notifications")
		return disabled
	}
	if u.Host != rule.host {
		logger.Warn("Invalid "+rule.name+" webhook host, disabling notifications", slog.String("host", u.Host))
		return disabled
	}
	if !strings.HasPrefix(u.Path, rule.pathPrefix) {
		logger.Warn("Invalid "+rule.name+" webhook path, disabling notifications", slog.String("path", u.Path))
		return disabled
	}

	return notifier.WebhookConfig{
		Enabled:    true,
		WebhookURL: webhookURL,
		Timeout:    webhookTimeout,
	}
}
