package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"florist-storefront/internal/domain"
)

const publishTimeout = 3 * time.Second

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch     channel
	logger *log.Logger
	now    func() time.Time
}

// Dial connects to the broker and declares the queues the publisher writes to.
func Dial(url string, logger *log.Logger) (*amqp.Connection, *Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	p, err := NewPublisher(conn, logger)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, p, nil
}

func NewPublisher(conn *amqp.Connection, logger *log.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(OrderCreatedQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare %s: %w", OrderCreatedQueue, err)
	}
	return newPublisher(ch, logger), nil
}

func newPublisher(ch channel, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Publisher{ch: ch, logger: logger, now: time.Now}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) OrderCreated(ctx context.Context, o domain.Order, items []domain.CartLineItem) error {
	body, err := json.Marshal(NewOrderCreated(o, items, p.now()))
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}
	if err := p.publishJSON(ctx, OrderCreatedQueue, body); err != nil {
		return fmt.Errorf("publish %s: %w", OrderCreatedQueue, err)
	}
	p.logger.Printf("events: published %s order_id=%s", OrderCreatedQueue, o.ID)
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
}
