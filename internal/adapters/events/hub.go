package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

const subscriberBuffer = 100

// hub fans events out to the in-process subscribers of each channel
type hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.MarketplaceEvent]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[string]map[chan *entities.MarketplaceEvent]struct{})}
}

// add registers a subscriber and reports whether it is the channel's first
func (h *hub) add(channel string) (chan *entities.MarketplaceEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	first := len(h.subscribers[channel]) == 0
	if h.subscribers[channel] == nil {
		h.subscribers[channel] = make(map[chan *entities.MarketplaceEvent]struct{})
	}
	ch := make(chan *entities.MarketplaceEvent, subscriberBuffer)
	h.subscribers[channel][ch] = struct{}{}
	return ch, first
}

// remove drops one subscriber and reports whether the channel is now empty
func (h *hub) remove(channel string, ch chan *entities.MarketplaceEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[channel]
	if !ok {
		return false
	}
	if _, ok := subs[ch]; !ok {
		return false
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.subscribers, channel)
		return true
	}
	return false
}

// count reports how many subscribers a channel has
func (h *hub) count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}

// broadcast delivers without blocking; full subscribers miss the event
func (h *hub) broadcast(channel string, event *entities.MarketplaceEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, dropping event")
		}
	}
}

// closeChannel closes every subscriber of channel
func (h *hub) closeChannel(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers[channel] {
		close(ch)
	}
	delete(h.subscribers, channel)
}

func (h *hub) channels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.subscribers))
	for channel := range h.subscribers {
		out = append(out, channel)
	}
	return out
}
