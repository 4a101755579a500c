package cache

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	count     int64
	expiresAt time.Time
}

// MemoryAdapter is an in-process CacheProvider and RateCounter used when
// Redis is not configured or unreachable at startup.
type MemoryAdapter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryAdapter creates an empty in-process cache
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{entries: make(map[string]*memoryEntry), now: time.Now}
}

// live returns the entry for key, evicting it when expired. Callers hold mu.
func (a *MemoryAdapter) live(key string) (*memoryEntry, bool) {
	e, ok := a.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !a.now().Before(e.expiresAt) {
		delete(a.entries, key)
		return nil, false
	}
	return e, true
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.live(key)
	if !ok || e.value == nil {
		return nil, providers.ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a value in cache with expiration
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := &memoryEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		e.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.entries[key] = e
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.live(key)
	return ok, nil
}

// Increment bumps a fixed-window counter
func (a *MemoryAdapter) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.live(key)
	if !ok {
		e = &memoryEntry{expiresAt: a.now().Add(window)}
		a.entries[key] = e
	}
	e.count++
	return e.count, nil
}

var (
	_ providers.CacheProvider = (*MemoryAdapter)(nil)
	_ providers.RateCounter   = (*MemoryAdapter)(nil)
)
