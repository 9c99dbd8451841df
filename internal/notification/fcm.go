package notification

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
)

// FCM allows at most 500 tokens per multicast.
const fcmBatchSize = 500

type fcmAPI interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMChannel pushes to device tokens through Firebase Cloud Messaging.
type FCMChannel struct {
	client fcmAPI
	log    zerolog.Logger

	// OnStaleTokens receives tokens FCM reports as unregistered.
	OnStaleTokens func(ctx context.Context, tokens []string)
}

func NewFCMChannel(client *messaging.Client, log zerolog.Logger) *FCMChannel {
	ch := &FCMChannel{log: log.With().Str("channel", "fcm").Logger()}
	if client != nil {
		ch.client = client
	}
	return ch
}

// Send delivers one notification to every token. recipients are device tokens.
func (f *FCMChannel) Send(ctx context.Context, recipients []string, title, body string) error {
	if f.client == nil {
		return errors.New("FCM client not initialized")
	}
	if len(recipients) == 0 {
		return nil
	}
	if len(recipients) == 1 {
		return f.sendSingle(ctx, recipients[0], title, body)
	}
	return f.sendMulticast(ctx, recipients, title, body)
}

func (f *FCMChannel) sendSingle(ctx context.Context, token, title, body string) error {
	msg := &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Android:      androidConfig(),
		APNS:         apnsConfig(),
		Webpush:      webpushConfig(title, body),
	}
	if _, err := f.client.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) {
			f.staleTokens(ctx, []string{token})
		}
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}

func (f *FCMChannel) sendMulticast(ctx context.Context, tokens []string, title, body string) error {
	var failed, stale []string

	for i := 0; i < len(tokens); i += fcmBatchSize {
		end := min(i+fcmBatchSize, len(tokens))
		batch := tokens[i:end]

		resp, err := f.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: &messaging.Notification{Title: title, Body: body},
			Android:      androidConfig(),
			APNS:         apnsConfig(),
			Webpush:      webpushConfig(title, body),
		})
		if err != nil {
			f.log.Error().Err(err).Int("batch", len(batch)).Msg("❌ FCM multicast batch failed")
			failed = append(failed, batch...)
			continue
		}
		if resp.FailureCount == 0 {
			continue
		}
		for idx, r := range resp.Responses {
			if r.Success {
				continue
			}
			failed = append(failed, batch[idx])
			if messaging.IsUnregistered(r.Error) {
				stale = append(stale, batch[idx])
			}
		}
	}

	f.staleTokens(ctx, stale)
	if len(failed) > 0 {
		return fmt.Errorf("failed to send to %d/%d tokens", len(failed), len(tokens))
	}
	return nil
}

func (f *FCMChannel) staleTokens(ctx context.Context, tokens []string) {
	if len(tokens) == 0 || f.OnStaleTokens == nil {
		return
	}
	f.OnStaleTokens(ctx, tokens)
}

func androidConfig() *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:        "default",
			ChannelID:    "campus_events",
			Priority:     messaging.PriorityHigh,
			DefaultSound: true,
		},
	}
}

func apnsConfig() *messaging.APNSConfig {
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{Sound: "default", Badge: intPtr(1)},
		},
	}
}

func webpushConfig(title, body string) *messaging.WebpushConfig {
	return &messaging.WebpushConfig{
		Notification: &messaging.WebpushNotification{
			Title: title,
			Body:  body,
			Icon:  "/icon-192x192.png",
		},
	}
}

func intPtr(i int) *int {
	return &i
}
