package notifier

import (
	"context"
	"fmt"
	"strings"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/utils/text"
)

// Slack section text limit.
const maxSlackSectionLength = 3000

// SlackNotifier posts a Block Kit message per event. Rate: 1 req/s.
type SlackNotifier struct {
	webhook
}

// NewSlackNotifier creates a SlackNotifier.
func NewSlackNotifier(config WebhookConfig) *SlackNotifier {
	return &SlackNotifier{webhook: newWebhook("slack", config, NewRateLimiter(slackRate, slackBurst))}
}

// SlackWebhookPayload is the body of a Slack incoming webhook call.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject is a mrkdwn or plain_text object.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// escapeSlack escapes the three characters mrkdwn treats as control sequences.
func escapeSlack(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func buildSlackPayload(event *entity.Event, source *entity.Source) SlackWebhookPayload {
	title := escapeSlack(event.Title)
	heading := "*" + title + "*"
	if event.URL != "" {
		heading = fmt.Sprintf("*<%s|%s>*", event.URL, title)
	}

	details := []string{":calendar: " + eventWhen(event.StartDate)}
	if event.Location != "" {
		details = append(details, ":round_pushpin: "+escapeSlack(event.Location))
	}
	details = append(details, "Source: "+escapeSlack(source.Name))

	blocks := []SlackBlock{
		{Type: "section", Text: &SlackTextObject{Type: "mrkdwn", Text: heading}},
	}
	if desc := strings.TrimSpace(event.Description); desc != "" {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackTextObject{Type: "mrkdwn", Text: text.Truncate(escapeSlack(desc), maxSlackSectionLength-len(truncationSuffix), truncationSuffix)},
		})
	}
	blocks = append(blocks, SlackBlock{
		Type:     "context",
		Elements: []SlackTextObject{{Type: "mrkdwn", Text: strings.Join(details, "  |  ")}},
	})

	return SlackWebhookPayload{
		Text:   "New event: " + event.Title,
		Blocks: blocks,
	}
}

// NotifyEvent posts event to the Slack webhook.
func (s *SlackNotifier) NotifyEvent(ctx context.Context, event *entity.Event, source *entity.Source) error {
	return s.deliver(ctx, event.ID, buildSlackPayload(event, source))
}
