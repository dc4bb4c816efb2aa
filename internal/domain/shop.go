package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// DistanceOtherWorld is the distance reported between locations in
// different worlds. Finite so it survives JSON encoding, and larger than
// any real distance so cross-world results sort last.
const DistanceOtherWorld = math.MaxFloat64

// Location identifies the block a shop occupies. It is comparable and used
// directly as a map key in the registry's location index.
type Location struct {
	World string `json:"world"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
}

// String renders the location as "world(x, y, z)".
func (l Location) String() string {
	return fmt.Sprintf("%s(%d, %d, %d)", l.World, l.X, l.Y, l.Z)
}

// DistanceTo returns the Euclidean distance to other, or DistanceOtherWorld
// when the two locations are in different worlds.
func (l Location) DistanceTo(other Location) float64 {
	if l.World != other.World {
		return DistanceOtherWorld
	}
	dx := float64(l.X - other.X)
	dy := float64(l.Y - other.Y)
	dz := float64(l.Z - other.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Shop is an owned, located collection of listings plus the revenue pool
// accumulated from sales, pending owner collection.
//
// Shop methods are not safe for concurrent use; the registry serializes
// mutations through a per-shop lock.
type Shop struct {
	ID          uuid.UUID   `json:"shop_id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	OwnerName   string      `json:"owner_name"`
	Location    Location    `json:"location"`
	Items       []*ShopItem `json:"items"`
	Revenue     []ItemStack `json:"revenue"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	LastUpdated time.Time   `json:"last_updated"`
}

// NewShop creates an active, empty shop at the given location.
func NewShop(ownerID uuid.UUID, ownerName string, loc Location) *Shop {
	now := time.Now()
	return &Shop{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		OwnerName:   ownerName,
		Location:    loc,
		Active:      true,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// AddItem appends a listing and bumps the modification time.
func (s *Shop) AddItem(item *ShopItem) {
	s.Items = append(s.Items, item)
	s.Touch()
}

// RemoveItem drops the listing with the given id. Returns false if the shop
// has no such listing.
func (s *Shop) RemoveItem(itemID uuid.UUID) bool {
	for i, item := range s.Items {
		if item.ID == itemID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			s.Touch()
			return true
		}
	}
	return false
}

// FindItem returns the listing with the given id, or nil.
func (s *Shop) FindItem(itemID uuid.UUID) *ShopItem {
	for _, item := range s.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// SetActive toggles the shop's availability and bumps the modification time.
func (s *Shop) SetActive(active bool) {
	s.Active = active
	s.Touch()
}

// AddRevenue merges the given stacks into the revenue pool. Each incoming
// stack first fills existing similar stacks up to their capacity, then the
// remainder is appended as a new stack. Empty stacks are ignored.
func (s *Shop) AddRevenue(m Matcher, stacks ...ItemStack) {
	for _, incoming := range stacks {
		if incoming.Count <= 0 {
			continue
		}
		s.Revenue = MergeStack(s.Revenue, CloneStack(incoming), m)
	}
	s.Touch()
}

// MergeStack folds a stack into a revenue list, filling similar stacks up to
// their capacity before appending the remainder. The input stack must not be
// aliased by the caller afterwards.
func MergeStack(revenue []ItemStack, stack ItemStack, m Matcher) []ItemStack {
	remaining := stack.Count
	for i := range revenue {
		if remaining == 0 {
			break
		}
		if !m.Similar(revenue[i].Payload, stack.Payload) {
			continue
		}
		capacity := revenue[i].Payload.MaxStackSize() - revenue[i].Count
		if capacity <= 0 {
			continue
		}
		fill := min(capacity, remaining)
		revenue[i].Count += fill
		remaining -= fill
	}
	if remaining > 0 {
		stack.Count = remaining
		revenue = append(revenue, stack)
	}
	return revenue
}

// ClearRevenue empties the revenue pool.
func (s *Shop) ClearRevenue() {
	s.Revenue = nil
	s.Touch()
}

// HasRevenue reports whether any revenue awaits collection.
func (s *Shop) HasRevenue() bool {
	return len(s.Revenue) > 0
}

// TotalRevenueItems sums the counts of every revenue stack.
func (s *Shop) TotalRevenueItems() int {
	total := 0
	for _, stack := range s.Revenue {
		total += stack.Count
	}
	return total
}

// Touch bumps LastUpdated, keeping it monotonically non-decreasing.
func (s *Shop) Touch() {
	if now := time.Now(); now.After(s.LastUpdated) {
		s.LastUpdated = now
	}
}

// Snapshot deep-copies the shop. Used to build the row handed to the
// persistence gateway before the in-memory state is committed.
func (s *Shop) Snapshot() *Shop {
	clone := *s
	clone.Revenue = CloneStacks(s.Revenue)
	clone.Items = make([]*ShopItem, len(s.Items))
	for i, item := range s.Items {
		clone.Items[i] = item.Clone()
	}
	return &clone
}

// Statistics aggregates registry-wide counters.
type Statistics struct {
	TotalShops        int `json:"total_shops"`
	ActiveShops       int `json:"active_shops"`
	TotalItems        int `json:"total_items"`
	TotalRevenueItems int `json:"total_revenue_items"`
}
