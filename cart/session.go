package cart

import (
	"strconv"
	"strings"
)

// Key builds the line key for a variant. The "v" prefix keeps variant keys
// out of any other key namespace sharing the container.
func Key(variantID uint) string {
	return "v" + strconv.FormatUint(uint64(variantID), 10)
}

// ParseKey recovers the variant id from a line key.
func ParseKey(key string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(key, "v"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Session is the in-memory cart representation bound to a Storage backend.
type Session struct {
	storage Storage
	data    *Data
}

func NewSession(storage Storage) *Session {
	return &Session{storage: storage, data: storage.Container()}
}

// SetItem writes an absolute quantity without touching the modified flag;
// Sync uses it to pull persisted lines in.
func (s *Session) SetItem(variantID, productID uint, quantity int) {
	key := Key(variantID)
	if line, ok := s.data.Get(key); ok {
		line.Quantity = quantity
		s.data.Set(key, line)
		return
	}
	s.data.Set(key, Line{ProductID: productID, Quantity: quantity})
}

// Add accumulates quantity onto an existing line, or inserts a new one.
func (s *Session) Add(variantID, productID uint, quantity int) {
	key := Key(variantID)
	if line, ok := s.data.Get(key); ok {
		quantity += line.Quantity
	}
	s.SetItem(variantID, productID, quantity)
	s.storage.MarkModified()
}

// Remove deletes the line if present. Removing an absent variant is a no-op
// and does not mark the storage modified.
func (s *Session) Remove(variantID uint) {
	key := Key(variantID)
	if _, ok := s.data.Get(key); !ok {
		return
	}
	s.data.Delete(key)
	s.storage.MarkModified()
}

// UpdateQuantity sets an absolute quantity, only for lines that exist.
func (s *Session) UpdateQuantity(variantID uint, quantity int) {
	key := Key(variantID)
	line, ok := s.data.Get(key)
	if !ok {
		return
	}
	line.Quantity = quantity
	s.data.Set(key, line)
	s.storage.MarkModified()
}

func (s *Session) Line(variantID uint) (Line, bool) {
	return s.data.Get(Key(variantID))
}

func (s *Session) Keys() []string { return s.data.Keys() }

func (s *Session) Len() int { return s.data.Len() }

func (s *Session) TotalQuantity() int {
	total := 0
	for _, key := range s.data.Keys() {
		if line, ok := s.data.Get(key); ok {
			total += line.Quantity
		}
	}
	return total
}

func (s *Session) Clear() {
	s.data.Clear()
	s.storage.MarkModified()
}
