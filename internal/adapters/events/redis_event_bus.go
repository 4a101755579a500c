package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	redisclient "github.com/zatekoja/servicehub/internal/infrastructure/clients/redis"
)

// subscription is the part of *redis.PubSub the bus relies on
type subscription interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// RedisEventBus implements the EventBus interface using Redis Pub/Sub.
// mu guards subscriptions and every hub membership change, so a channel
// has a live Redis subscription whenever it has local subscribers.
type RedisEventBus struct {
	client        *redis.Client
	subscribe     func(ctx context.Context, channel string) subscription
	hub           *hub
	subscriptions map[string]subscription
	mu            sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	rdb := client.Client()
	bus := newRedisEventBus(func(ctx context.Context, channel string) subscription {
		return rdb.Subscribe(ctx, channel)
	})
	bus.client = rdb
	return bus
}

func newRedisEventBus(subscribe func(ctx context.Context, channel string) subscription) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		subscribe:     subscribe,
		hub:           newHub(),
		subscriptions: make(map[string]subscription),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an event to all subscribers across instances
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.MarketplaceEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("event_type", string(event.EventType)).Msg("published event")
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.MarketplaceEvent, error) {
	b.mu.Lock()
	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.subscribe(b.ctx, channel)
		b.subscriptions[channel] = pubsub
		go b.receive(channel, pubsub)
	}
	eventChan, _ := b.hub.add(channel)
	b.mu.Unlock()

	log.Info().Str("channel", channel).Msg("subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.hub.remove(channel, eventChan) {
			b.closeSubscriptionLocked(channel)
		}
	}()

	return eventChan, nil
}

func (b *RedisEventBus) receive(channel string, pubsub subscription) {
	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event entities.MarketplaceEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Str("channel", channel).Msg("failed to unmarshal event")
				continue
			}
			b.hub.broadcast(channel, &event)
		}
	}
}

// closeSubscriptionLocked drops the Redis subscription of a channel that
// has no local subscribers left. Callers hold b.mu.
func (b *RedisEventBus) closeSubscriptionLocked(channel string) {
	if b.hub.count(channel) > 0 {
		return
	}
	if pubsub, ok := b.subscriptions[channel]; ok {
		if err := pubsub.Close(); err != nil {
			log.Error().Err(err).Str("channel", channel).Msg("failed to close subscription")
		}
		delete(b.subscriptions, channel)
	}
}

// Unsubscribe drops every local subscriber of a channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	b.hub.closeChannel(channel)
	b.closeSubscriptionLocked(channel)
	b.mu.Unlock()
	log.Info().Str("channel", channel).Msg("unsubscribed from channel")
	return nil
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, channel := range b.hub.channels() {
		b.hub.closeChannel(channel)
	}
	var errs []error
	for channel, pubsub := range b.subscriptions {
		if err := pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", channel, err))
		}
		delete(b.subscriptions, channel)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing event bus: %v", errs)
	}

	log.Info().Msg("event bus closed")
	return nil
}
