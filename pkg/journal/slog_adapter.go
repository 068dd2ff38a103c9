package journal

import (
	"context"
	"log/slog"
)

// SlogAdapter writes journal events to an slog.Logger.
// Useful for development when you want to see record activity in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("record_id", event.RecordID),
		slog.String("op", event.Op.String()),
	}

	// Add type-specific attributes
	switch {
	case event.Update != nil:
		attrs = append(attrs,
			slog.String("origin", event.Update.Origin),
			slog.Any("keys", event.Update.Keys),
			slog.Int("subscribers", event.Update.Subscribers),
		)
		if event.Update.Unset {
			attrs = append(attrs, slog.Bool("unset", true))
		}
	case event.Subscription != nil:
		attrs = append(attrs,
			slog.String("subscriber", event.Subscription.Subscriber),
			slog.Int("subscribers", event.Subscription.Subscribers),
		)
		if event.Subscription.Removed > 0 {
			attrs = append(attrs, slog.Int("removed", event.Subscription.Removed))
		}
	case event.Lifecycle != nil:
		if event.Lifecycle.Class != "" {
			attrs = append(attrs,
				slog.String("class", event.Lifecycle.Class),
				slog.String("id", event.Lifecycle.ID),
			)
		}
		attrs = append(attrs, slog.Int("subscribers", event.Lifecycle.Subscribers))
		if event.Lifecycle.GracePeriod > 0 {
			attrs = append(attrs, slog.Duration("grace_period", event.Lifecycle.GracePeriod))
		}
		if event.Lifecycle.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Lifecycle.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Subscriber != "" {
			attrs = append(attrs, slog.String("subscriber", event.Error.Subscriber))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "record", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
