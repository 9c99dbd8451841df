package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaTransport publishes deliveries keyed by user id, so one user's
// messages land on one partition in order.
type KafkaTransport struct {
	writer kafkaWriter
}

func NewKafkaTransport(w *kafka.Writer) *KafkaTransport {
	return &KafkaTransport{writer: w}
}

func (t *KafkaTransport) Enqueue(ctx context.Context, d Delivery) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(d.UserID), 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "channel", Value: []byte(d.Channel)},
		},
	}
	if err := t.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (t *KafkaTransport) Close() error { return t.writer.Close() }

// KafkaSource reads deliveries from a consumer group. Offsets are committed
// after handling, including failed and malformed messages.
type KafkaSource struct {
	reader kafkaReader
	log    zerolog.Logger
}

func NewKafkaSource(r *kafka.Reader, log zerolog.Logger) *KafkaSource {
	return &KafkaSource{reader: r, log: log}
}

func (s *KafkaSource) Consume(ctx context.Context, handle func(context.Context, Delivery) error) error {
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}

		var d Delivery
		if err := json.Unmarshal(msg.Value, &d); err != nil {
			s.log.Error().Err(err).Int64("offset", msg.Offset).Msg("dropping malformed delivery")
		} else if err := handle(ctx, d); err != nil {
			s.log.Warn().Err(err).
				Uint("user_id", d.UserID).
				Str("channel", string(d.Channel)).
				Msg("delivery failed")
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka commit: %w", err)
		}
	}
}

func (s *KafkaSource) Close() error { return s.reader.Close() }
