// Package notify delivers reminder notifications to users over one or
// more channels. Channels are dispatched independently: a failure in one
// channel is captured in that channel's outcome and never prevents the
// others from running.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ChannelName identifies a delivery mechanism.
type ChannelName string

// The fixed channel registry.
const (
	ChannelLog   ChannelName = "log"
	ChannelEmail ChannelName = "email"
	ChannelPush  ChannelName = "push"
	ChannelSMS   ChannelName = "sms"
)

// Outcome statuses reported per channel.
const (
	StatusSent           = "sent"
	StatusFailed         = "failed"
	StatusUnknownChannel = "unknown_channel"
)

// Outcome is the per-channel result of a dispatch.
type Outcome struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Channel is one delivery mechanism. Implementations must be safe for
// concurrent use.
type Channel interface {
	// Send delivers the message to the user over this channel.
	Send(ctx context.Context, userID, message string) error
}

// Dispatcher fans a notification out to the requested channels.
type Dispatcher struct {
	channels map[ChannelName]Channel
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher with the full channel registry.
// Only the log channel performs real work; email, push, and sms are
// placeholders pending provider integrations.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	logger = logger.With("component", "notification_dispatcher")
	return &Dispatcher{
		channels: map[ChannelName]Channel{
			ChannelLog:   &logChannel{logger: logger},
			ChannelEmail: &placeholderChannel{name: ChannelEmail, logger: logger},
			ChannelPush:  &placeholderChannel{name: ChannelPush, logger: logger},
			ChannelSMS:   &placeholderChannel{name: ChannelSMS, logger: logger},
		},
		logger: logger,
	}
}

// Send delivers a reminder for the task to the user via the requested
// channels and returns a per-channel outcome map. A nil or empty channel
// list defaults to the log channel only, so real delivery channels are
// an explicit opt-in. Unknown channel names get an explicit
// unknown_channel outcome instead of being skipped silently.
func (d *Dispatcher) Send(ctx context.Context, userID, taskTitle string, dueDate time.Time, channels []ChannelName) map[ChannelName]Outcome {
	if len(channels) == 0 {
		channels = []ChannelName{ChannelLog}
	}

	message := fmt.Sprintf("Reminder: Task '%s' is due on %s", taskTitle, dueDate.Format(time.RFC3339))
	results := make(map[ChannelName]Outcome, len(channels))

	for _, name := range channels {
		channel, ok := d.channels[name]
		if !ok {
			d.logger.Warn("unknown notification channel", "channel", name, "user_id", userID)
			results[name] = Outcome{Status: StatusUnknownChannel}
			continue
		}

		if err := channel.Send(ctx, userID, message); err != nil {
			d.logger.Error("notification delivery failed",
				"channel", name,
				"user_id", userID,
				"error", err)
			results[name] = Outcome{Status: StatusFailed, Error: err.Error()}
			continue
		}

		results[name] = Outcome{Status: StatusSent}
	}

	return results
}

// RegisterChannel replaces or adds a channel implementation. Intended
// for wiring real providers and for tests.
func (d *Dispatcher) RegisterChannel(name ChannelName, channel Channel) {
	d.channels[name] = channel
}

// logChannel writes the notification to the structured log. This is the
// MVP-safe default delivery mechanism.
type logChannel struct {
	logger *slog.Logger
}

func (c *logChannel) Send(ctx context.Context, userID, message string) error {
	c.logger.Info("NOTIFICATION",
		"user_id", userID,
		"message", message)
	return nil
}

// placeholderChannel stands in for provider-backed channels (email,
// push, sms) until those integrations exist. It logs the would-be
// delivery and reports success.
type placeholderChannel struct {
	name   ChannelName
	logger *slog.Logger
}

func (c *placeholderChannel) Send(ctx context.Context, userID, message string) error {
	c.logger.Info("notification delivery (placeholder)",
		"channel", c.name,
		"user_id", userID,
		"message", message)
	return nil
}
