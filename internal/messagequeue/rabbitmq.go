package messagequeue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQ implements MessageQueue on durable RabbitMQ queues.
type RabbitMQ struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

// NewRabbitMQ dials url and opens a channel.
func NewRabbitMQ(url string, logger *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	logger.Info("connected to RabbitMQ")
	return &RabbitMQ{conn: conn, ch: ch, logger: logger}, nil
}

func (r *RabbitMQ) declare(queueName string) error {
	_, err := r.ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	return nil
}

func (r *RabbitMQ) Publish(ctx context.Context, queueName string, body []byte) error {
	if err := r.declare(queueName); err != nil {
		return err
	}
	err := r.ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queueName, err)
	}
	return nil
}

// Consume acknowledges messages the handler accepts. A rejected message is
// requeued once and dropped if it fails again.
func (r *RabbitMQ) Consume(ctx context.Context, queueName string, handler Handler) error {
	if err := r.declare(queueName); err != nil {
		return err
	}
	msgs, err := r.ch.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer for queue %s: %w", queueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return ErrClosed
			}
			if err := handler(ctx, d.Body); err != nil {
				r.logger.Warn("message rejected",
					zap.String("queue", queueName), zap.Bool("redelivered", d.Redelivered), zap.Error(err))
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (r *RabbitMQ) Close() error {
	var lastErr error
	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			lastErr = err
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
