package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// MarketplaceEventType represents the type of marketplace event
type MarketplaceEventType string

const (
	EventTypeBookingCreated       MarketplaceEventType = "booking.created"
	EventTypeBookingStatusChanged MarketplaceEventType = "booking.status_changed"
	EventTypeReviewCreated        MarketplaceEventType = "review.created"
	EventTypeServiceUpdated       MarketplaceEventType = "service.updated"
	EventTypeServiceDeleted       MarketplaceEventType = "service.deleted"
	EventTypeProviderUpdated      MarketplaceEventType = "provider.updated"
)

// MarketplaceEvent is published after a state change has been committed
type MarketplaceEvent struct {
	ID         string                 `json:"id"`
	EventType  MarketplaceEventType   `json:"event_type"`
	EntityID   string                 `json:"entity_id"`
	ProviderID string                 `json:"provider_id,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// NewMarketplaceEvent creates a new marketplace event
func NewMarketplaceEvent(eventType MarketplaceEventType, entityID, providerID string, data map[string]interface{}) *MarketplaceEvent {
	return &MarketplaceEvent{
		ID:         generateEventID(),
		EventType:  eventType,
		EntityID:   entityID,
		ProviderID: providerID,
		Timestamp:  time.Now(),
		Data:       data,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
