package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes events to a NATS server.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher connects to NATS and returns a publisher. Subjects are
// prefixed with the given namespace (e.g., "vanir" -> "vanir.discount.redeemed").
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("vanir-pricing"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

// PublishDiscountRedeemed publishes a discount.redeemed event.
func (p *NATSPublisher) PublishDiscountRedeemed(ctx context.Context, event DiscountRedeemed) error {
	return p.publish(SubjectDiscountRedeemed, event)
}

func (p *NATSPublisher) publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.prefix != "" {
		subject = p.prefix + "." + subject
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes and closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if err := p.conn.Flush(); err != nil {
		return err
	}
	p.conn.Close()
	return nil
}
