package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Channel is the part of *amqp.Channel the publisher uses
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher forwards run outcomes and raised backorders to a durable
// RabbitMQ queue as persistent JSON messages.
type AMQPPublisher struct {
	channel Channel
	conn    *amqp.Connection
	queue   string
	logger  *zap.Logger
}

// DialAMQPPublisher connects to the broker at url and declares queue
func DialAMQPPublisher(url, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}

	publisher, err := NewAMQPPublisher(ch, queue, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	publisher.conn = conn
	return publisher, nil
}

// NewAMQPPublisher declares queue on an open channel
func NewAMQPPublisher(ch Channel, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		return nil, fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}

	return &AMQPPublisher{channel: ch, queue: queue, logger: logger}, nil
}

func (p *AMQPPublisher) CanHandle(eventType string) bool {
	switch eventType {
	case RunCompletedEvent, RunFailedEvent, BackorderRaisedEvent:
		return true
	default:
		return false
	}
}

func (p *AMQPPublisher) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(envelope(event))
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         event.Type(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.channel.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		msg,
	); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}

	p.logger.Debug("event published", zap.String("event_type", event.Type()), zap.String("queue", p.queue))
	return nil
}

// Close releases the channel and, when the publisher dialed it, the connection
func (p *AMQPPublisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
