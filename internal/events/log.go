package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a logging publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish writes the event to the structured logger.
func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("ledger event",
		slog.String("event_id", e.ID),
		slog.String("kind", string(e.Kind)),
		slog.String("app", e.App),
		slog.String("user", e.User),
		slog.String("amount", e.Amount.String()),
		slog.String("memo", e.Memo),
	)
	return nil
}
