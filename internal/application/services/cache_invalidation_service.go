package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
)

// CacheInvalidationService drops cached services when marketplace events
// report that they changed
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     sync.WaitGroup
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelMarketplace)
	if err != nil {
		return fmt.Errorf("failed to subscribe to marketplace events: %w", err)
	}

	s.done.Add(1)
	go func() {
		defer s.done.Done()
		s.processEvents(eventChan)
	}()
	log.Info().Str("channel", providers.EventChannelMarketplace).Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service and waits for the worker to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.done.Wait()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.MarketplaceEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.MarketplaceEvent) {
	switch event.EventType {
	case entities.EventTypeServiceUpdated, entities.EventTypeServiceDeleted:
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidateService(ctx, event.EntityID); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Str("service_id", event.EntityID).Msg("failed to invalidate service cache")
		return
	}
	log.Debug().Str("event_type", string(event.EventType)).Str("service_id", event.EntityID).Msg("invalidated service cache")
}

// InvalidateService removes the cached copy of a service
func (s *CacheInvalidationService) InvalidateService(ctx context.Context, serviceID string) error {
	if err := s.cache.Delete(ctx, ServiceCacheKey(serviceID)); err != nil {
		return fmt.Errorf("failed to invalidate service %s: %w", serviceID, err)
	}
	return nil
}
