// Package nats publishes service events to a NATS subject per topic. It is
// the lightweight alternative to the Kafka producer for deployments that
// already run NATS.
package nats

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

var ErrPublisherClosed = errors.New(errors.ErrCodeMessageQueueError, "nats publisher closed")

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	IsConnected() bool
	Drain() error
	Close()
}

// Publisher publishes common.ProducerMessage values, using the topic as the
// subject and carrying headers and key as NATS headers.
type Publisher struct {
	conn   Conn
	logger logging.Logger
	closed atomic.Bool
}

// HeaderKey carries the message key, which NATS has no native slot for.
const HeaderKey = "Fieldscout-Key"

// Connect dials cfg.URL.
func Connect(cfg config.NATSConfig, logger logging.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.NewValidation("nats url required")
	}
	name := cfg.Name
	if name == "" {
		name = "fieldscout"
	}
	wait := cfg.ReconnectWait
	if wait == 0 {
		wait = 2 * time.Second
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(wait),
		nats.MaxReconnects(cfg.MaxReconnects),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to connect to nats")
	}
	if logger != nil {
		logger.Info("NATS connection established", logging.String("url", cfg.URL))
	}
	return NewPublisher(conn, logger), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Publish sends msg and flushes so the caller learns of delivery failures.
func (p *Publisher) Publish(ctx context.Context, msg *common.ProducerMessage) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	if msg.Topic == "" {
		return errors.NewValidation("topic required")
	}

	m := nats.NewMsg(msg.Topic)
	m.Data = msg.Value
	for k, v := range msg.Headers {
		m.Header.Set(k, v)
	}
	if len(msg.Key) > 0 {
		m.Header.Set(HeaderKey, string(msg.Key))
	}

	if err := p.conn.PublishMsg(m); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "nats publish failed").WithDetail("subject=" + msg.Topic)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "nats flush failed").WithDetail("subject=" + msg.Topic)
	}
	p.logger.Debug("Message published", logging.String("subject", msg.Topic))
	return nil
}

// IsConnected reports the connection state.
func (p *Publisher) IsConnected() bool {
	return !p.closed.Load() && p.conn.IsConnected()
}

// Close drains the connection, falling back to an immediate close.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("Failed to drain NATS connection, closing immediately", logging.Err(err))
		p.conn.Close()
	}
	return nil
}

//Personal.AI order the ending
