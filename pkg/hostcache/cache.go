package hostcache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache stores resolved assistant base URLs with a time-to-live.
type Cache interface {
	// Get returns the cached base URL for an assistant, or false when the
	// entry is absent or expired.
	Get(name string) (string, bool)
	// Put stores a base URL for an assistant with a fresh expiry.
	Put(name, baseURL string)
}

type entry struct {
	baseURL   string
	expiresAt time.Time
}

// Memory is a process-wide in-memory Cache. Entries are overwritten on
// re-resolution and never evicted otherwise.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Memory cache with the given TTL.
func New(ttl time.Duration) *Memory {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a Memory cache with an injected clock.
func NewWithClock(ttl time.Duration, now func() time.Time) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get implements Cache.
func (m *Memory) Get(name string) (string, bool) {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expiresAt) {
		m.misses.Add(1)
		return "", false
	}
	m.hits.Add(1)
	return e.baseURL, true
}

// Put implements Cache.
func (m *Memory) Put(name, baseURL string) {
	m.mu.Lock()
	m.entries[name] = entry{baseURL: baseURL, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
}

// Stats reports cache performance metrics.
type Stats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats returns current cache counters.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	n := int64(len(m.entries))
	m.mu.RUnlock()
	return Stats{Entries: n, Hits: m.hits.Load(), Misses: m.misses.Load()}
}
