package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunnable struct {
	topic       string
	started     bool
	stopped     bool
	startErr    error
	shutdownErr error
}

func (f *fakeRunnable) Topic() string {
	return f.topic
}

func (f *fakeRunnable) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}

	f.started = true

	return nil
}

func (f *fakeRunnable) Shutdown() error {
	f.stopped = true

	return f.shutdownErr
}

func TestConsumerGroup_Topics(t *testing.T) {
	group := messaging.NewConsumerGroup(newStubSubscriber(), zap.NewNop())
	group.Add(&fakeRunnable{topic: analytics.TopicLinkCreated})
	group.Add(&fakeRunnable{topic: analytics.TopicLinkClicked})

	assert.Equal(t, []string{analytics.TopicLinkCreated, analytics.TopicLinkClicked}, group.Topics())
}

func TestConsumerGroup_Start(t *testing.T) {
	t.Run("starts every consumer", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newStubSubscriber(), zap.NewNop())
		created := &fakeRunnable{topic: analytics.TopicLinkCreated}
		clicked := &fakeRunnable{topic: analytics.TopicLinkClicked}

		group.Add(created)
		group.Add(clicked)

		require.NoError(t, group.Start(context.Background()))
		assert.True(t, created.started)
		assert.True(t, clicked.started)
	})

	t.Run("stops started consumers when one fails", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newStubSubscriber(), zap.NewNop())
		created := &fakeRunnable{topic: analytics.TopicLinkCreated}
		clicked := &fakeRunnable{topic: analytics.TopicLinkClicked, startErr: errors.New("stream unavailable")}
		never := &fakeRunnable{topic: "other"}

		group.Add(created)
		group.Add(clicked)
		group.Add(never)

		err := group.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), analytics.TopicLinkClicked)
		assert.True(t, created.stopped)
		assert.False(t, clicked.started)
		assert.False(t, never.started)
	})
}

func TestConsumerGroup_Shutdown(t *testing.T) {
	t.Run("stops consumers and closes the subscriber", func(t *testing.T) {
		sub := newStubSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		created := &fakeRunnable{topic: analytics.TopicLinkCreated}

		group.Add(created)
		require.NoError(t, group.Start(context.Background()))

		require.NoError(t, group.Shutdown())
		assert.True(t, created.stopped)
		assert.True(t, sub.closed)
	})

	t.Run("joins every error", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newStubSubscriber(), zap.NewNop())
		first := &fakeRunnable{topic: analytics.TopicLinkCreated, shutdownErr: errors.New("first failed")}
		second := &fakeRunnable{topic: analytics.TopicLinkClicked, shutdownErr: errors.New("second failed")}

		group.Add(first)
		group.Add(second)
		require.NoError(t, group.Start(context.Background()))

		err := group.Shutdown()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "first failed")
		assert.Contains(t, err.Error(), "second failed")
		assert.True(t, second.stopped)
	})
}
