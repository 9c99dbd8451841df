package notification

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	ExchangeName = "notifications"
	ExchangeKind = "topic"
	QueueName    = "notifications.deliveries"
)

func routingKey(c ChannelKind) string { return "delivery." + string(c) }

func dialRabbit(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	return conn, ch, nil
}

// RabbitTransport publishes deliveries to a durable topic exchange with
// routing key delivery.<channel>.
type RabbitTransport struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitTransport(url string) (*RabbitTransport, error) {
	conn, ch, err := dialRabbit(url)
	if err != nil {
		return nil, err
	}
	return &RabbitTransport{conn: conn, channel: ch}, nil
}

func (t *RabbitTransport) Enqueue(ctx context.Context, d Delivery) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}
	if err := t.channel.PublishWithContext(ctx,
		ExchangeName,
		routingKey(d.Channel),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish delivery: %w", err)
	}
	return nil
}

func (t *RabbitTransport) Close() error {
	if t.channel != nil {
		t.channel.Close()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

// RabbitSource consumes every delivery.* message with manual acks. Failed
// deliveries are rejected without requeue.
type RabbitSource struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     zerolog.Logger
}

func NewRabbitSource(url string, log zerolog.Logger) (*RabbitSource, error) {
	conn, ch, err := dialRabbit(url)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(QueueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "delivery.*", ExchangeName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue bind: %w", err)
	}
	return &RabbitSource{conn: conn, channel: ch, log: log}, nil
}

func (s *RabbitSource) Consume(ctx context.Context, handle func(context.Context, Delivery) error) error {
	msgs, err := s.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // manual ack after handling
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}
	s.log.Info().Str("queue", QueueName).Msg("🐇 consuming deliveries")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var d Delivery
			if err := json.Unmarshal(msg.Body, &d); err != nil {
				s.log.Error().Err(err).Msg("dropping malformed delivery")
				msg.Nack(false, false)
				continue
			}
			if err := handle(ctx, d); err != nil {
				s.log.Warn().Err(err).
					Uint("user_id", d.UserID).
					Str("channel", string(d.Channel)).
					Msg("delivery failed")
				msg.Nack(false, false)
				continue
			}
			msg.Ack(false)
		}
	}
}

func (s *RabbitSource) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
