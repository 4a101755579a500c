package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// EventStreamHandler streams marketplace events to providers over Server-Sent Events
type EventStreamHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration
	clients   map[string]map[chan *entities.MarketplaceEvent]bool // channel -> clients
	mu        sync.RWMutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewEventStreamHandler creates a new event stream handler
func NewEventStreamHandler(eventBus providers.EventBus) *EventStreamHandler {
	return &EventStreamHandler{
		eventBus:  eventBus,
		heartbeat: 30 * time.Second,
		clients:   make(map[string]map[chan *entities.MarketplaceEvent]bool),
		done:      make(chan struct{}),
	}
}

// Close ends every open stream. http.Server.Shutdown does not cancel
// in-flight requests, so it is registered as a shutdown hook.
func (h *EventStreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// StreamProviderEvents streams bookings and reviews for the calling provider
// GET /api/provider/events
func (h *EventStreamHandler) StreamProviderEvents(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if !p.IsProvider() {
		respondWithError(w, r, apperrors.NewForbiddenError("Access denied"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, r, apperrors.NewInternalError("streaming not supported", nil))
		return
	}

	channel := providers.GetProviderChannel(p.ID)
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		respondWithError(w, r, apperrors.NewExternalError("Event stream unavailable", err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	clientChan := make(chan *entities.MarketplaceEvent, 10)
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	h.sendEvent(w, "connected", map[string]interface{}{
		"provider_id": p.ID,
		"timestamp":   time.Now(),
	})
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("provider_id", p.ID).Msg("client disconnected from provider stream")
			return
		case <-h.done:
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the event bus to a client channel
func (h *EventStreamHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.MarketplaceEvent, clientChan chan<- *entities.MarketplaceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
				// slow client, drop
			}
		}
	}
}

func (h *EventStreamHandler) registerClient(channel string, clientChan chan *entities.MarketplaceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.MarketplaceEvent]bool)
	}
	h.clients[channel][clientChan] = true
	log.Debug().Str("channel", channel).Int("clients", len(h.clients[channel])).Msg("stream client registered")
}

func (h *EventStreamHandler) unregisterClient(channel string, clientChan chan *entities.MarketplaceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent writes one SSE frame
func (h *EventStreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal stream event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients
func (h *EventStreamHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
