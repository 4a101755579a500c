package services

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
)

// ImageFile is an uploaded image waiting to be stored with the image host
type ImageFile struct {
	Data     []byte
	Filename string
}

// Empty reports whether no image was supplied
func (f *ImageFile) Empty() bool {
	return f == nil || len(f.Data) == 0
}

// publishEvent fans an event out to the marketplace channel and, when the
// event concerns a provider, to that provider's channel. The state change
// is already committed, so failures are only logged.
func publishEvent(ctx context.Context, bus providers.EventBus, event *entities.MarketplaceEvent) {
	if bus == nil || event == nil {
		return
	}

	logger := observability.LoggerFromContext(ctx)
	if err := bus.Publish(ctx, providers.EventChannelMarketplace, event); err != nil {
		logger.Warn().Err(err).Str("event_type", string(event.EventType)).Str("entity_id", event.EntityID).Msg("failed to publish event")
	}
	if event.ProviderID == "" {
		return
	}
	if err := bus.Publish(ctx, providers.GetProviderChannel(event.ProviderID), event); err != nil {
		logger.Warn().Err(err).Str("event_type", string(event.EventType)).Str("provider_id", event.ProviderID).Msg("failed to publish provider event")
	}
}
