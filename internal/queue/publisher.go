package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits booking events. Callers treat errors as non-fatal.
type Publisher interface {
	PublishTripBooked(ctx context.Context, ev TripBookedEvent) error
	Close() error
}

// ─── No-op ──────────────────────────────────────────────────

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishTripBooked(context.Context, TripBookedEvent) error { return nil }
func (NoopPublisher) Close() error                                             { return nil }

// ─── RabbitMQ ───────────────────────────────────────────────

// RabbitPublisher publishes persistent JSON messages to a durable queue on
// the default exchange. One channel is shared and guarded by a mutex. When
// the broker drops the connection or channel, the next publish redials.
type RabbitPublisher struct {
	mu    sync.Mutex
	url   string
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewRabbitPublisher dials the broker and declares the queue (idempotent).
func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	p := &RabbitPublisher{url: url, queue: queue}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect opens a fresh connection and channel and declares the queue.
// Callers hold p.mu, except the constructor.
func (p *RabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq: declare queue %s: %w", p.queue, err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *RabbitPublisher) connected() bool {
	return p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed()
}

// drop releases a broken connection so the next publish redials.
func (p *RabbitPublisher) drop() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *RabbitPublisher) PublishTripBooked(ctx context.Context, ev TripBookedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected() {
		p.drop()
		log.Printf("[queue] broker connection lost, redialing")
		if err := p.connect(); err != nil {
			log.Printf("[queue] publish %s failed: %v", ev.TripID, err)
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    ev.TripID,
			Body:         body,
		},
	)
	if err != nil {
		p.drop()
		log.Printf("[queue] publish %s failed: %v", ev.TripID, err)
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	_ = p.ch.Close()
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}
