// Package notify delivers outbound text to the chat platform: channel
// broadcasts and private replies to a command's ephemeral reply target.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"tradebot/internal/util"
)

// Notifier posts formatted text to the chat platform.
type Notifier interface {
	// Post broadcasts text to a channel.
	Post(ctx context.Context, channel, text string) error

	// Reply sends text to the invoker's private reply target (the
	// response_url of a slash command).
	Reply(ctx context.Context, responseURL, text string) error
}

// Compile-time interface check.
var _ Notifier = (*SlackNotifier)(nil)

// SlackNotifier implements Notifier against the Slack web API. Posting is
// throttled by a token bucket to stay within Slack's per-channel message
// rate limit.
type SlackNotifier struct {
	client  *slack.Client
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewSlackNotifier creates a SlackNotifier using the given bot token.
func NewSlackNotifier(botToken string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(botToken),
		limiter: util.NewRateLimiter(60), // Slack allows ~1 message/sec/channel
		log:     slog.Default().With("component", "notifier"),
	}
}

// Post broadcasts text to a Slack channel via chat.postMessage.
func (n *SlackNotifier) Post(ctx context.Context, channel, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	_, _, err := n.client.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("posting to %s: %w", channel, err)
	}
	return nil
}

// Reply sends text to a slash command's response_url. Slack renders it as an
// ephemeral message visible only to the invoker.
func (n *SlackNotifier) Reply(ctx context.Context, responseURL, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := slack.PostWebhookContext(ctx, responseURL, &slack.WebhookMessage{Text: text}); err != nil {
		return fmt.Errorf("replying via response_url: %w", err)
	}
	return nil
}
