package providers

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.MarketplaceEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.MarketplaceEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelMarketplace carries every marketplace event
	EventChannelMarketplace = "marketplace:events"

	// EventChannelProviderPrefix is the prefix for provider-specific channels
	EventChannelProviderPrefix = "provider:"
)

// GetProviderChannel returns the channel name for a specific provider
func GetProviderChannel(providerID string) string {
	return EventChannelProviderPrefix + providerID
}
