package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

// Redis bridges the in-process bus over a Redis PUB/SUB channel, the
// cross-tab analog: a write made by another process reaches local
// subscribers through its change notification, never instantaneously.
type Redis struct {
	local   *Memory
	client  *redis.Client
	channel string
	origin  string
	logg    *logger.Logger
	cancel  context.CancelFunc
}

// NewRedis starts the subscriber loop and returns the bridged bus.
func NewRedis(client *redis.Client, channel string, logg *logger.Logger) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if channel == "" {
		return nil, fmt.Errorf("bus channel required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Redis{
		local:   NewMemory(),
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logg:    logg,
		cancel:  cancel,
	}

	pubsub := client.Subscribe(ctx, channel)
	go b.receive(ctx, pubsub)

	return b, nil
}

func (b *Redis) Publish(ctx context.Context, event Event) error {
	if event.Origin == "" {
		event.Origin = b.origin
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	errs := b.local.Publish(ctx, event)

	raw, err := json.Marshal(event)
	if err != nil {
		return multierr.Append(errs, fmt.Errorf("encode event: %w", err))
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("publish event: %w", err))
	}
	return errs
}

func (b *Redis) Subscribe(handler Handler) func() {
	return b.local.Subscribe(handler)
}

// Close stops the subscriber loop.
func (b *Redis) Close() {
	b.cancel()
}

func (b *Redis) receive(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				if b.logg != nil {
					b.logg.Warn(ctx, "dropping undecodable bus event")
				}
				continue
			}
			// Local subscribers already saw our own events; skipping the
			// echo is an optimization, not a correctness requirement,
			// since consumers re-read full state either way.
			if event.Origin == b.origin {
				continue
			}
			if err := b.local.Publish(ctx, event); err != nil && b.logg != nil {
				b.logg.Error(ctx, "bus handler error", err)
			}
		}
	}
}
