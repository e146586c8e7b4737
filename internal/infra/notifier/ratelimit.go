package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// Webhook budgets. Discord allows 30 posts a minute per webhook, Slack one
// per second.
const (
	discordRate  = 0.5
	discordBurst = 3
	slackRate    = 1
	slackBurst   = 1
)

// RateLimiter is a token bucket shared by every post of one webhook.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow waits for a token. It fails only when ctx ends first.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
