package notifier

import (
	"context"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/utils/text"
)

// Discord embed limits.
const (
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	truncationSuffix     = "..."

	// #5865F2
	discordBlueColor = 5793266
)

// DiscordNotifier posts an embed per event. Rate: 0.5 req/s, burst 3.
type DiscordNotifier struct {
	webhook
}

// NewDiscordNotifier creates a DiscordNotifier.
func NewDiscordNotifier(config WebhookConfig) *DiscordNotifier {
	return &DiscordNotifier{webhook: newWebhook("discord", config, NewRateLimiter(discordRate, discordBurst))}
}

// DiscordWebhookPayload is the body of a Discord webhook call.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is a single rich message.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Image       *DiscordEmbedImage  `json:"image,omitempty"`
	Footer      DiscordEmbedFooter  `json:"footer"`
	Timestamp   string              `json:"timestamp"`
}

// DiscordEmbedField is a name/value row of an embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedImage is the embed picture.
type DiscordEmbedImage struct {
	URL string `json:"url"`
}

// DiscordEmbedFooter carries the source name.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

func buildDiscordPayload(event *entity.Event, source *entity.Source) DiscordWebhookPayload {
	embed := DiscordEmbed{
		Title:       text.Truncate(event.Title, maxTitleLength, ""),
		Description: text.Truncate(event.Description, maxDescriptionLength-len(truncationSuffix), truncationSuffix),
		URL:         event.URL,
		Color:       discordBlueColor,
		Fields: []DiscordEmbedField{
			{Name: "When", Value: eventWhen(event.StartDate), Inline: true},
		},
		Footer:    DiscordEmbedFooter{Text: source.Name},
		Timestamp: event.StartDate.Format(time.RFC3339),
	}
	if event.Location != "" {
		embed.Fields = append(embed.Fields, DiscordEmbedField{Name: "Where", Value: event.Location, Inline: true})
	}
	if event.ImageURL != "" {
		embed.Image = &DiscordEmbedImage{URL: event.ImageURL}
	}
	return DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}}
}

// NotifyEvent posts event to the Discord webhook.
func (d *DiscordNotifier) NotifyEvent(ctx context.Context, event *entity.Event, source *entity.Source) error {
	return d.deliver(ctx, event.ID, buildDiscordPayload(event, source))
}
