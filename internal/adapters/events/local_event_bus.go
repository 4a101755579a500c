package events

import (
	"context"
	"sync"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
)

// LocalEventBus delivers events to subscribers in the same process.
// It backs single-instance deployments that run without Redis.
type LocalEventBus struct {
	hub    *hub
	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
}

// NewLocalEventBus creates an in-process event bus
func NewLocalEventBus() providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalEventBus{hub: newHub(), ctx: ctx, cancel: cancel}
}

// Publish delivers an event to current subscribers
func (b *LocalEventBus) Publish(_ context.Context, channel string, event *entities.MarketplaceEvent) error {
	b.hub.broadcast(channel, event)
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done
func (b *LocalEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.MarketplaceEvent, error) {
	ch, _ := b.hub.add(channel)
	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.hub.remove(channel, ch)
	}()
	return ch, nil
}

// Unsubscribe drops every subscriber of a channel
func (b *LocalEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.hub.closeChannel(channel)
	return nil
}

// Close closes all subscriptions
func (b *LocalEventBus) Close() error {
	b.once.Do(func() {
		b.cancel()
		for _, channel := range b.hub.channels() {
			b.hub.closeChannel(channel)
		}
	})
	return nil
}
