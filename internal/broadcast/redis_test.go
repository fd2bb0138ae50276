package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChannel = "tictactoe:test"

type fakeClient struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (that *fakeClient) Publish(_ context.Context, _ string, message interface{}) *redis.IntCmd {
	that.mu.Lock()
	defer that.mu.Unlock()

	if payload, ok := message.([]byte); ok {
		that.messages = append(that.messages, string(payload))
	}

	return redis.NewIntResult(1, that.err)
}

func (that *fakeClient) count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.messages)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_HandleEvent(t *testing.T) {
	t.Run("Full queue drops the event", func(t *testing.T) {
		// Given: a publisher with room for one event and no worker
		publisher := NewPublisher(discardLogger(), &fakeClient{}, testChannel, 1)

		// When: two events arrive
		first := publisher.HandleEvent(entity.Event{Type: entity.EventMoveApplied})
		second := publisher.HandleEvent(entity.Event{Type: entity.EventGameEnded})

		// Then: the second one is rejected without blocking
		require.NoError(t, first)
		require.ErrorIs(t, second, ErrQueueFull)
	})

	t.Run("Queued events are flushed on shutdown", func(t *testing.T) {
		// Given: a publisher with events waiting
		client := &fakeClient{}
		publisher := NewPublisher(discardLogger(), client, testChannel, 4)
		require.NoError(t, publisher.HandleEvent(entity.Event{Type: entity.EventMoveApplied}))
		require.NoError(t, publisher.HandleEvent(entity.Event{Type: entity.EventGameReset}))

		// When: the worker runs with an already canceled context
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		publisher.Run(ctx)

		// Then: both events were published
		assert.Equal(t, 2, client.count())
	})

	t.Run("Publish errors do not stop the worker", func(t *testing.T) {
		// Given: a client that always fails
		client := &fakeClient{err: errors.New("connection refused")}
		publisher := NewPublisher(discardLogger(), client, testChannel, 0)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			publisher.Run(ctx)
			close(done)
		}()

		// When: events are handled
		require.NoError(t, publisher.HandleEvent(entity.Event{Type: entity.EventMoveApplied}))
		require.NoError(t, publisher.HandleEvent(entity.Event{Type: entity.EventMoveApplied}))

		// Then: every event was attempted
		assert.Eventually(t, func() bool { return client.count() == 2 }, time.Second, 10*time.Millisecond)
		cancel()
		<-done
	})
}

func TestPublisher_Redis(t *testing.T) {
	ctx, st := suite.New(t)

	// Given: a subscriber on the event channel
	pubsub := st.Redis.Subscribe(ctx, testChannel)
	t.Cleanup(func() { _ = pubsub.Close() })

	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)
	messages := pubsub.Channel()

	client, err := Connect(ctx, st.RedisAddr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	publisher := NewPublisher(st.Logger, client, testChannel, DefaultQueueSize)
	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go publisher.Run(runCtx)

	// When: a game event is handled
	event := entity.Event{
		Type:    entity.EventGameEnded,
		RoundID: "round-1",
		Cell:    2,
		Mark:    entity.PlayerX,
		Status:  entity.Won(entity.PlayerX, entity.Line{0, 1, 2}),
	}
	require.NoError(t, publisher.HandleEvent(event))

	// Then: the subscriber receives it as JSON
	select {
	case msg := <-messages:
		var received entity.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &received))
		assert.Equal(t, event, received)
	case <-time.After(10 * time.Second):
		t.Fatal("event was not published")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, "127.0.0.1:1")

	require.Error(t, err)
}
