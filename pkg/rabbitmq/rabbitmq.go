package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Config struct {
	URL      string `split_words:"true"`
	Exchange string `split_words:"true" default:"outreach.events"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// Message is a ready-to-send JSON body with its broker metadata.
type Message struct {
	ID            string
	CorrelationID string
	Type          string
	Body          []byte
}

// Publisher sends confirmed persistent messages to a topic exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	exchange string
}

func NewPublisher(cfg Config) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("amqp url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	return &Publisher{conn: conn, exchange: cfg.Exchange}, nil
}

func (p *Publisher) Publish(ctx context.Context, key string, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("amqp confirm mode: %w", err)
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     msg.ID,
		CorrelationId: msg.CorrelationID,
		Type:          msg.Type,
		Timestamp:     time.Now().UTC(),
		Body:          msg.Body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm %s: %w", key, err)
	}
	if !acked {
		return fmt.Errorf("publish %s: broker nacked message", key)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
