package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelivererRoutesByChannel(t *testing.T) {
	repo := newMemRepo()
	repo.tokens[1] = []string{"tok-a", "tok-b"}
	email, push := &recordingChannel{}, &recordingChannel{}
	d := NewDeliverer(email, push, repo, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, d.Deliver(ctx, Delivery{UserID: 1, Channel: ChannelEmail, To: "a@x.io", Subject: "s", Body: "b"}))
	require.NoError(t, d.Deliver(ctx, Delivery{UserID: 1, Channel: ChannelPush, Subject: "s", Body: "b"}))
	require.NoError(t, d.Deliver(ctx, Delivery{UserID: 2, Channel: ChannelPush, Subject: "s", Body: "b"}))

	assert.Equal(t, [][]string{{"a@x.io"}}, email.sends)
	assert.Equal(t, [][]string{{"tok-a", "tok-b"}}, push.sends)

	assert.Error(t, d.Deliver(ctx, Delivery{UserID: 1, Channel: "sms"}))
}

func TestInlineTransportDeliversImmediately(t *testing.T) {
	email := &recordingChannel{err: errors.New("smtp down")}
	tr := NewInlineTransport(NewDeliverer(email, nil, newMemRepo(), zerolog.Nop()))

	err := tr.Enqueue(context.Background(), Delivery{UserID: 1, Channel: ChannelEmail, To: "a@x.io"})
	assert.EqualError(t, err, "smtp down")
	assert.Len(t, email.sends, 1)
}

type fakeKafkaWriter struct {
	msgs []kafka.Message
}

func (w *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeKafkaWriter) Close() error { return nil }

func TestKafkaTransportKeysByUser(t *testing.T) {
	w := &fakeKafkaWriter{}
	tr := &KafkaTransport{writer: w}

	require.NoError(t, tr.Enqueue(context.Background(), Delivery{UserID: 17, Channel: ChannelPush, Subject: "s"}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "17", string(w.msgs[0].Key))

	var d Delivery
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &d))
	assert.Equal(t, ChannelPush, d.Channel)
	assert.Equal(t, uint(17), d.UserID)
}

type fakeKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeKafkaReader) Close() error { return nil }

func (r *fakeKafkaReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestKafkaSourceCommitsEveryMessage(t *testing.T) {
	good, _ := json.Marshal(Delivery{UserID: 1, Channel: ChannelEmail, To: "a@x.io"})
	failing, _ := json.Marshal(Delivery{UserID: 2, Channel: ChannelEmail, To: "b@x.io"})
	reader := &fakeKafkaReader{queue: []kafka.Message{
		{Offset: 1, Value: good},
		{Offset: 2, Value: []byte("{not json")},
		{Offset: 3, Value: failing},
	}}
	src := &KafkaSource{reader: reader, log: zerolog.Nop()}

	var mu sync.Mutex
	var handled []uint
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Consume(ctx, func(_ context.Context, d Delivery) error {
			mu.Lock()
			defer mu.Unlock()
			handled = append(handled, d.UserID)
			if d.UserID == 2 {
				return errors.New("mailbox full")
			}
			return nil
		})
	}()

	assert.Eventually(t, func() bool { return len(reader.commits()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint{1, 2}, handled)
	assert.Equal(t, []int64{1, 2, 3}, reader.commits())
}

type chanSource struct {
	ch chan Delivery
}

func (s *chanSource) Consume(ctx context.Context, handle func(context.Context, Delivery) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-s.ch:
			_ = handle(ctx, d)
		}
	}
}

func (s *chanSource) Close() error { return nil }

func TestDeliveryWorkerStartStop(t *testing.T) {
	email := &recordingChannel{}
	src := &chanSource{ch: make(chan Delivery)}
	w := NewDeliveryWorker(src, NewDeliverer(email, nil, newMemRepo(), zerolog.Nop()), zerolog.Nop())

	w.Start(context.Background())
	src.ch <- Delivery{UserID: 1, Channel: ChannelEmail, To: "a@x.io"}
	w.Stop()

	email.mu.Lock()
	defer email.mu.Unlock()
	assert.Len(t, email.sends, 1)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "delivery.email", routingKey(ChannelEmail))
	assert.Equal(t, "delivery.push", routingKey(ChannelPush))
}
