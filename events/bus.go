// Package events carries domain events published after successful commits.
// Handlers replace what the previous design did with hidden post-save hooks:
// cache invalidation, notifications and the order-status feed all subscribe
// here explicitly.
package events

import (
	"sync"

	"github.com/arvand-shop/storefront-api/models"
)

type Event interface {
	Name() string
}

// OrderStatusChanged is published after an order's payment-driven status is
// committed.
type OrderStatusChanged struct {
	OrderID uint
	UserID  uint
	Status  models.OrderStatus
}

func (OrderStatusChanged) Name() string { return "order.status_changed" }

// CategoryChanged is published after the category tree is mutated.
type CategoryChanged struct {
	CategoryID uint
}

func (CategoryChanged) Name() string { return "catalog.category_changed" }

type Handler func(Event)

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish runs every handler registered for the event's name. Callers publish
// only after their transaction has committed.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Name()]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
