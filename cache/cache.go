package cache

import (
	"sync"
	"time"
)

// Client is a key/value backend with TTLs and an atomic counter, enough for
// session payloads and versioned-key invalidation.
type Client interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Incr(key string) int64
	Delete(key string)
}

type entry struct {
	value     any
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process Client. Expired entries are dropped lazily on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
}

// Incr increments the counter stored at key and returns the new value. A
// missing or non-integer entry restarts the counter at 1.
func (m *Memory) Incr(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if ok && !e.expired(time.Now()) {
		if n, isInt := e.value.(int64); isInt {
			m.entries[key] = entry{value: n + 1}
			return n + 1
		}
	}
	m.entries[key] = entry{value: int64(1)}
	return 1
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}
