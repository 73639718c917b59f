package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// MessagePublisher is the subset of *nats.Conn used here.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher emits events as JSON on "<prefix>.<kind>" subjects.
type NATSPublisher struct {
	conn   MessagePublisher
	prefix string
}

// NewNATSPublisher wraps a NATS connection.
func NewNATSPublisher(conn MessagePublisher, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = "apicoin.events"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject an event of kind is published on.
func (p *NATSPublisher) Subject(kind Kind) string {
	return p.prefix + "." + string(kind)
}

func (p *NATSPublisher) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	if err := p.conn.Publish(p.Subject(e.Kind), data); err != nil {
		return fmt.Errorf("publish event %s: %w", e.ID, err)
	}
	return nil
}
