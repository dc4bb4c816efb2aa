package event

import (
	"context"
	"fmt"
	"sync"
)

// Type represents the type of an event
type Type string

// Shop event types. The presentation layer subscribes to these to deliver
// user-facing notifications; nothing in the transaction core depends on a
// subscriber being present.
const (
	ShopCreated      Type = "shop.created"
	ShopRemoved      Type = "shop.removed"
	ShopForceRemoved Type = "shop.force_removed"
	ItemListed       Type = "shop.item.listed"
	ItemDelisted     Type = "shop.item.delisted"
	ItemPurchased    Type = "shop.item.purchased"
	ItemSoldOut      Type = "shop.item.sold_out"
	RevenueCollected Type = "shop.revenue.collected"
	GrantOverflow    Type = "shop.grant.overflow"
)

// Event represents a notification emitted by the shop core.
type Event struct {
	Version string         `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type           `json:"type"`
	Payload map[string]any `json:"payload"`
}

// New creates a v1 event.
func New(t Type, payload map[string]any) Event {
	return Event{Version: "1.0", Type: t, Payload: payload}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers. Handlers run synchronously;
// callers that cannot block dispatch through the worker pool instead.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d handler(s) failed for %s: %v", len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
