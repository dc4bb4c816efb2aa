// Package inventory provides an in-memory InventoryOracle implementation.
// It backs the default wiring and the test suites; a host platform with its
// own inventory system supplies its own oracle instead.
package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nouridin/supershop/internal/domain"
)

// Unbounded disables the per-actor capacity limit.
const Unbounded = 0

// MemoryOracle holds actor inventories as slices of item stacks. All
// operations are safe for concurrent use; each call locks the whole oracle,
// which is fine at the call rates a single registry produces.
type MemoryOracle struct {
	mu       sync.Mutex
	matcher  domain.Matcher
	capacity int // max total items per actor, Unbounded for no limit
	holdings map[uuid.UUID][]domain.ItemStack
}

// NewMemoryOracle creates an oracle with the given per-actor capacity.
func NewMemoryOracle(matcher domain.Matcher, capacity int) *MemoryOracle {
	if matcher == nil {
		matcher = domain.DefaultMatcher{}
	}
	return &MemoryOracle{
		matcher:  matcher,
		capacity: capacity,
		holdings: make(map[uuid.UUID][]domain.ItemStack),
	}
}

// HasAtLeast reports whether the actor holds at least count similar items.
func (o *MemoryOracle) HasAtLeast(_ context.Context, actorID uuid.UUID, payload domain.ItemPayload, count int) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.countSimilar(actorID, payload) >= count, nil
}

// Remove takes count similar items from the actor, all-or-nothing.
func (o *MemoryOracle) Remove(_ context.Context, actorID uuid.UUID, payload domain.ItemPayload, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: count %d", domain.ErrInvalidInput, count)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.countSimilar(actorID, payload) < count {
		return fmt.Errorf("%w: actor %s holds fewer than %d of %s", domain.ErrInsufficientFunds, actorID, count, payload.Kind)
	}

	remaining := count
	stacks := o.holdings[actorID]
	kept := stacks[:0]
	for _, stack := range stacks {
		if remaining > 0 && o.matcher.Similar(stack.Payload, payload) {
			take := min(remaining, stack.Count)
			stack.Count -= take
			remaining -= take
		}
		if stack.Count > 0 {
			kept = append(kept, stack)
		}
	}
	o.holdings[actorID] = kept
	return nil
}

// Grant gives count items to the actor, filling similar stacks before
// appending new ones. The leftover is the portion beyond the actor's
// capacity.
func (o *MemoryOracle) Grant(_ context.Context, actorID uuid.UUID, payload domain.ItemPayload, count int) (int, error) {
	if count <= 0 {
		return 0, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	grant := count
	if o.capacity != Unbounded {
		room := o.capacity - o.totalItems(actorID)
		if room <= 0 {
			return count, nil
		}
		grant = min(grant, room)
	}

	o.holdings[actorID] = domain.MergeStack(o.holdings[actorID], domain.ItemStack{Payload: domain.ClonePayload(payload), Count: grant}, o.matcher)
	return count - grant, nil
}

// Count returns the actor's total holdings of items similar to the payload.
// Test and presentation helper, not part of the oracle contract.
func (o *MemoryOracle) Count(actorID uuid.UUID, payload domain.ItemPayload) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.countSimilar(actorID, payload)
}

func (o *MemoryOracle) countSimilar(actorID uuid.UUID, payload domain.ItemPayload) int {
	total := 0
	for _, stack := range o.holdings[actorID] {
		if o.matcher.Similar(stack.Payload, payload) {
			total += stack.Count
		}
	}
	return total
}

func (o *MemoryOracle) totalItems(actorID uuid.UUID) int {
	total := 0
	for _, stack := range o.holdings[actorID] {
		total += stack.Count
	}
	return total
}
