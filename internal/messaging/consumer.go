package messaging

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/linkstats/internal/metrics"
	"go.uber.org/zap"
)

// Handler applies one decoded event. Returning an error redelivers the message.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer decodes the JSON events of one topic and feeds them to a Handler.
//
// Messages that cannot be decoded, or that were published for another topic,
// are acked and dropped: redelivering them would never succeed.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a consumer of topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and handles messages in the background until ctx is
// cancelled, Shutdown is called, or the subscription closes.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		cancel()

		return err
	}

	c.cancel = cancel

	go c.run(ctx, msgs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer[T]) handle(ctx context.Context, msg *message.Message) {
	if topic := msg.Metadata.Get(topicMetadataKey); topic != "" && topic != c.topic {
		c.drop(msg, zap.String("publishedTopic", topic))

		return
	}

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.drop(msg, zap.Error(err))

		return
	}

	if err := c.handler(ctx, &event); err != nil {
		c.logger.Error("failed to handle event",
			zap.String("messageID", msg.UUID),
			zap.Error(err),
		)
		metrics.EventsConsumedTotal.WithLabelValues(c.topic, metrics.EventFailed).Inc()
		msg.Nack()

		return
	}

	metrics.EventsConsumedTotal.WithLabelValues(c.topic, metrics.EventProcessed).Inc()
	msg.Ack()
}

func (c *Consumer[T]) drop(msg *message.Message, reason zap.Field) {
	c.logger.Warn("dropping undeliverable event", zap.String("messageID", msg.UUID), reason)
	metrics.EventsConsumedTotal.WithLabelValues(c.topic, metrics.EventDropped).Inc()
	msg.Ack()
}

// Shutdown stops the consumer and waits for the in-flight message. It is a
// no-op on a consumer that was never started.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
