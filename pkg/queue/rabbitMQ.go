package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrPublishNacked = errors.New("message was not confirmed by broker")

type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
	Close() error
}

// RabbitMQConfig: Exchange is a durable topic exchange, QueueName is bound to it
// with BindingKey so events are kept even when no consumer is running.
type RabbitMQConfig struct {
	URL        string
	Exchange   string
	QueueName  string
	BindingKey string
}

// confirmation is the broker's answer to one publish.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type publishChannel interface {
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
}

type amqpChannel struct {
	ch *amqp.Channel
}

func (c amqpChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

type RabbitMQ struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel publishChannel
	open    func() (publishChannel, error)
	config  RabbitMQConfig
}

func NewRabbitMQ(config RabbitMQConfig) (*RabbitMQ, error) {
	if config.BindingKey == "" {
		config.BindingKey = "#"
	}

	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	r := &RabbitMQ{conn: conn, config: config}
	r.open = r.declare
	if err := r.setup(); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) setup() error {
	ch, err := r.open()
	if err != nil {
		return err
	}
	r.channel = ch
	return nil
}

// declare opens a confirm-mode channel with the exchange, queue and binding in place.
func (r *RabbitMQ) declare() (publishChannel, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(r.config.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", r.config.Exchange, err)
	}

	q, err := ch.QueueDeclare(r.config.QueueName, true, false, false, false, amqp.Table{
		"x-queue-mode": "lazy",
	})
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", r.config.QueueName, err)
	}

	if err := ch.QueueBind(q.Name, r.config.BindingKey, r.config.Exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to bind queue %s: %w", q.Name, err)
	}

	// publisher confirms
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to enable confirms: %w", err)
	}

	return amqpChannel{ch: ch}, nil
}

// Publish sends message as JSON and waits for the broker confirm.
// A closed channel is reopened once.
func (r *RabbitMQ) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel == nil {
		if err := r.setup(); err != nil {
			return err
		}
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         body,
	}

	confirm, err := r.channel.publish(ctx, r.config.Exchange, routingKey, msg)
	if errors.Is(err, amqp.ErrClosed) {
		// канал мог закрыться брокером, соединение ещё живо
		if err := r.setup(); err != nil {
			return err
		}
		confirm, err = r.channel.publish(ctx, r.config.Exchange, routingKey, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
	}

	ok, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm publish to %s: %w", routingKey, err)
	}
	if !ok {
		return ErrPublishNacked
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	// closing the connection closes its channels
	return r.conn.Close()
}

// HealthCheck проверяет соединение с RabbitMQ
func (r *RabbitMQ) HealthCheck() error {
	if r.conn == nil || r.conn.IsClosed() {
		return errors.New("RabbitMQ connection is closed")
	}
	return nil
}
