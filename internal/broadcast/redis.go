// Package broadcast publishes game events to a Redis pub/sub channel so
// spectators outside the process can follow the game.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

const (
	DefaultQueueSize = 64
	drainTimeout     = 2 * time.Second
)

var ErrQueueFull = errors.New("broadcast queue is full, event dropped")

// Connect opens a Redis client and checks the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := conn.Ping(ctx).Result(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return conn, nil
}

type publisherClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher queues events and publishes them from a single worker, so a slow
// Redis never holds up the game.
type Publisher struct {
	logger  *slog.Logger
	client  publisherClient
	channel string

	queue chan entity.Event
}

func NewPublisher(logger *slog.Logger, client publisherClient, channel string, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Publisher{
		logger:  logger.With("component", "broadcast"),
		client:  client,
		channel: channel,
		queue:   make(chan entity.Event, queueSize),
	}
}

// HandleEvent enqueues the event without blocking.
func (that *Publisher) HandleEvent(event entity.Event) error {
	select {
	case that.queue <- event:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, event.Type)
	}
}

// Run publishes queued events until ctx is canceled, then flushes what is left.
func (that *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			that.drain()
			return
		case event := <-that.queue:
			that.publish(ctx, event)
		}
	}
}

func (that *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-that.queue:
			that.publish(ctx, event)
		default:
			return
		}
	}
}

func (that *Publisher) publish(ctx context.Context, event entity.Event) {
	log := that.logger.With("method", "publish", "event", event.Type, "round", event.RoundID)

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error("could not marshal event", "error", err)
		return
	}

	if err = that.client.Publish(ctx, that.channel, payload).Err(); err != nil {
		log.Warn("failed to publish event", "error", err)
		return
	}

	log.Debug("event published")
}
