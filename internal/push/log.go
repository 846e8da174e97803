package push

import (
	"context"
	"log/slog"

	"github.com/example/care-alarms/internal/notifier"
)

// LogDeliverer writes deliveries to a logger. It is used when no FCM
// credentials are configured.
type LogDeliverer struct {
	logger *slog.Logger
}

// NewLogDeliverer creates a LogDeliverer.
func NewLogDeliverer(logger *slog.Logger) *LogDeliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDeliverer{logger: logger.With(slog.String("component", "push"), slog.String("transport", "log"))}
}

// Ready implements notifier.Deliverer.
func (d *LogDeliverer) Ready(context.Context) error { return nil }

// Deliver implements notifier.Deliverer.
func (d *LogDeliverer) Deliver(ctx context.Context, delivery notifier.Delivery) error {
	d.logger.InfoContext(ctx, "notification delivered",
		slog.String("identifier", delivery.Identifier),
		slog.String("title", delivery.Content.Title),
		slog.String("body", delivery.Content.Body),
		slog.String("channel", delivery.Content.ChannelID),
		slog.Time("fired_at", delivery.FiredAt))
	return nil
}
