package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSubscriber hands out one channel the test writes to directly.
type stubSubscriber struct {
	msgs         chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newStubSubscriber() *stubSubscriber {
	return &stubSubscriber{msgs: make(chan *message.Message, 10)}
}

func (s *stubSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}

	return s.msgs, nil
}

func (s *stubSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.msgs)
	}

	return nil
}

func noopHandler(context.Context, *analytics.LinkClickedEvent) error { return nil }

func clickedMessage(t *testing.T, event *analytics.LinkClickedEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

type ackResult int

const (
	acked ackResult = iota
	nacked
)

func waitAck(t *testing.T, msg *message.Message) ackResult {
	t.Helper()

	select {
	case <-msg.Acked():
		return acked
	case <-msg.Nacked():
		return nacked
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack or nack")

		return 0
	}
}

func TestConsumer_Start(t *testing.T) {
	t.Run("subscribes to its topic", func(t *testing.T) {
		consumer := messaging.NewConsumer(newStubSubscriber(), analytics.TopicLinkClicked, noopHandler, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, analytics.TopicLinkClicked, consumer.Topic())
		assert.NoError(t, consumer.Shutdown())
	})

	t.Run("returns subscribe errors", func(t *testing.T) {
		sub := &stubSubscriber{subscribeErr: errors.New("stream unavailable")}
		consumer := messaging.NewConsumer(sub, analytics.TopicLinkClicked, noopHandler, zap.NewNop())

		require.Error(t, consumer.Start(context.Background()))
		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_Handle(t *testing.T) {
	t.Run("acks handled events", func(t *testing.T) {
		sub := newStubSubscriber()
		received := make(chan *analytics.LinkClickedEvent, 1)

		consumer := messaging.NewConsumer(sub, analytics.TopicLinkClicked,
			func(_ context.Context, event *analytics.LinkClickedEvent) error {
				received <- event

				return nil
			}, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))
		t.Cleanup(func() { _ = consumer.Shutdown() })

		msg := clickedMessage(t, &analytics.LinkClickedEvent{Code: "aB3dE5fG", Country: "Germany", DeviceType: "Mobile"})
		sub.msgs <- msg

		assert.Equal(t, acked, waitAck(t, msg))

		event := <-received
		assert.Equal(t, "aB3dE5fG", event.Code)
		assert.Equal(t, "Germany", event.Country)
	})

	t.Run("nacks handler failures for redelivery", func(t *testing.T) {
		sub := newStubSubscriber()
		consumer := messaging.NewConsumer(sub, analytics.TopicLinkClicked,
			func(context.Context, *analytics.LinkClickedEvent) error {
				return errors.New("rollup unavailable")
			}, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))
		t.Cleanup(func() { _ = consumer.Shutdown() })

		msg := clickedMessage(t, &analytics.LinkClickedEvent{Code: "aB3dE5fG"})
		sub.msgs <- msg

		assert.Equal(t, nacked, waitAck(t, msg))
	})

	t.Run("drops undecodable payloads", func(t *testing.T) {
		sub := newStubSubscriber()
		called := false

		consumer := messaging.NewConsumer(sub, analytics.TopicLinkClicked,
			func(context.Context, *analytics.LinkClickedEvent) error {
				called = true

				return nil
			}, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		msg := message.NewMessage(uuid.NewString(), []byte("not json"))
		sub.msgs <- msg

		assert.Equal(t, acked, waitAck(t, msg))
		require.NoError(t, consumer.Shutdown())
		assert.False(t, called)
	})

	t.Run("drops events published for another topic", func(t *testing.T) {
		sub := newStubSubscriber()
		called := false

		consumer := messaging.NewConsumer(sub, analytics.TopicLinkClicked,
			func(context.Context, *analytics.LinkClickedEvent) error {
				called = true

				return nil
			}, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		msg := clickedMessage(t, &analytics.LinkClickedEvent{Code: "aB3dE5fG"})
		msg.Metadata.Set("topic", analytics.TopicLinkCreated)
		sub.msgs <- msg

		assert.Equal(t, acked, waitAck(t, msg))
		require.NoError(t, consumer.Shutdown())
		assert.False(t, called)
	})
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		consumer := messaging.NewConsumer(newStubSubscriber(), analytics.TopicLinkClicked, noopHandler, zap.NewNop())

		assert.NoError(t, consumer.Shutdown())
	})

	t.Run("after the subscription closed", func(t *testing.T) {
		sub := newStubSubscriber()
		consumer := messaging.NewConsumer(sub, analytics.TopicLinkClicked, noopHandler, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		require.NoError(t, sub.Close())
		assert.NoError(t, consumer.Shutdown())
	})
}

func TestPublishAndConsume(t *testing.T) {
	logger := messaging.NewZapLogger(zap.NewNop())
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger)

	received := make(chan *analytics.LinkCreatedEvent, 1)
	consumer := messaging.NewConsumer(pubSub, analytics.TopicLinkCreated,
		func(_ context.Context, event *analytics.LinkCreatedEvent) error {
			received <- event

			return nil
		}, zap.NewNop())

	group := messaging.NewConsumerGroup(pubSub, zap.NewNop())
	group.Add(consumer)
	require.NoError(t, group.Start(context.Background()))
	t.Cleanup(func() { _ = group.Shutdown() })

	publish := messaging.NewPublishFunc[analytics.LinkCreatedEvent](pubSub, analytics.TopicLinkCreated)
	createdAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, publish(context.Background(), &analytics.LinkCreatedEvent{
		Code:      "aB3dE5fG",
		LongURL:   "https://example.com",
		CreatedAt: createdAt,
	}))

	select {
	case event := <-received:
		assert.Equal(t, "aB3dE5fG", event.Code)
		assert.Equal(t, "https://example.com", event.LongURL)
		assert.True(t, createdAt.Equal(event.CreatedAt))
	case <-time.After(time.Second):
		t.Fatal("event was not consumed")
	}
}
