package container

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/samber/do"
	"github.com/serroba/linkstats/internal/analytics"
	analyticsstore "github.com/serroba/linkstats/internal/analytics/store"
	"github.com/serroba/linkstats/internal/messaging"
	"go.uber.org/zap"
)

// PublisherGroupPackage provides the publisher and the typed publish functions.
// Without Redis, events go to an in-process channel nobody subscribes to.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i))

		if !client.Enabled() {
			return messaging.NewPublisherGroup(gochannel.NewGoChannel(gochannel.Config{}, logger)), nil
		}

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     client.Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create redis stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.LinkCreatedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.LinkCreatedEvent](group.Publisher(), analytics.TopicLinkCreated), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.LinkClickedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.LinkClickedEvent](group.Publisher(), analytics.TopicLinkClicked), nil
	})
}

// ConsumerGroupPackage provides the analytics.Store the consumer writes to
// and the *messaging.ConsumerGroup reading both link topics. It requires Redis.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.AnalyticsSink {
		case SinkRollup:
			client := do.MustInvoke[*RedisClient](i)
			if !client.Enabled() {
				return nil, fmt.Errorf("analytics sink %q requires redis", SinkRollup)
			}

			return analyticsstore.NewRollup(client.Client, opts.RollupTTL()), nil
		case SinkLog:
			return analyticsstore.NewNoop(do.MustInvoke[*zap.Logger](i)), nil
		default:
			return nil, fmt.Errorf("unknown analytics sink %q", opts.AnalyticsSink)
		}
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		client := do.MustInvoke[*RedisClient](i)

		if !client.Enabled() {
			return nil, errors.New("consumer requires redis")
		}

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: opts.ConsumerGroup,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create redis stream subscriber: %w", err)
		}

		sink := do.MustInvoke[analytics.Store](i)

		return NewConsumerGroup(subscriber, sink, logger), nil
	})
}

// NewConsumerGroup subscribes sink to the link topics.
func NewConsumerGroup(subscriber message.Subscriber, sink analytics.Store, logger *zap.Logger) *messaging.ConsumerGroup {
	group := messaging.NewConsumerGroup(subscriber, logger)
	group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkCreated, sink.SaveLinkCreated, logger))
	group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkClicked, sink.SaveLinkClicked, logger))

	return group
}
