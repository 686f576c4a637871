// Package cart implements the session-backed shopping cart: an ordered
// in-memory line set keyed on a swappable storage backend, merged with the
// persisted cart across anonymous/authenticated transitions.
package cart

import (
	"time"

	"github.com/arvand-shop/storefront-api/cache"
)

// Line is one cart entry.
type Line struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Data is a variant-key -> line mapping that remembers insertion order so
// serialization stays deterministic.
type Data struct {
	keys  []string
	items map[string]Line
}

func newData() *Data {
	return &Data{items: make(map[string]Line)}
}

func (d *Data) Get(key string) (Line, bool) {
	line, ok := d.items[key]
	return line, ok
}

// Set inserts or overwrites a line. Existing keys keep their position.
func (d *Data) Set(key string, line Line) {
	if _, ok := d.items[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.items[key] = line
}

func (d *Data) Delete(key string) {
	if _, ok := d.items[key]; !ok {
		return
	}
	delete(d.items, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the line keys in insertion order.
func (d *Data) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

func (d *Data) Len() int { return len(d.items) }

func (d *Data) Clear() {
	d.keys = nil
	d.items = make(map[string]Line)
}

// Storage abstracts where a cart payload lives.
type Storage interface {
	Container() *Data
	MarkModified()
}

// SessionStore keeps cart payloads server-side, keyed by session id, with a
// sliding TTL refreshed on every modification.
type SessionStore struct {
	client cache.Client
	ttl    time.Duration
}

func NewSessionStore(client cache.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Storage binds one session id to the Storage interface.
func (s *SessionStore) Storage(sessionID string) *SessionStorage {
	return &SessionStorage{store: s, sessionID: sessionID}
}

type SessionStorage struct {
	store     *SessionStore
	sessionID string
	data      *Data
	modified  bool
}

func (s *SessionStorage) key() string { return "cart_session_" + s.sessionID }

func (s *SessionStorage) Container() *Data {
	if s.data != nil {
		return s.data
	}
	if value, ok := s.store.client.Get(s.key()); ok {
		if data, isData := value.(*Data); isData {
			s.data = data
			return s.data
		}
	}
	s.data = newData()
	return s.data
}

func (s *SessionStorage) MarkModified() {
	s.modified = true
	s.store.client.Set(s.key(), s.Container(), s.store.ttl)
}

// Modified reports whether any operation actually touched the payload.
func (s *SessionStorage) Modified() bool { return s.modified }
