package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ShopItem is a single listing in a shop: a template payload, the stock on
// hand, and the price of one unit expressed as a vector of item stacks.
// An empty price vector means the item is free.
type ShopItem struct {
	ID          uuid.UUID   `json:"item_id"`
	Payload     ItemPayload `json:"payload"`
	Quantity    int         `json:"quantity"`
	Price       []ItemStack `json:"price"`
	Description string      `json:"description,omitempty"`
	Available   bool        `json:"available"`
}

// NewShopItem creates an available listing with a fresh id.
func NewShopItem(payload ItemPayload, quantity int, price []ItemStack, description string) *ShopItem {
	return &ShopItem{
		ID:          uuid.New(),
		Payload:     ClonePayload(payload),
		Quantity:    quantity,
		Price:       CloneStacks(price),
		Description: description,
		Available:   true,
	}
}

// IsAvailable reports whether the listing can currently be bought.
func (i *ShopItem) IsAvailable() bool {
	return i.Available && i.Quantity > 0
}

// ReduceQuantity removes amount units of stock. It refuses to take the
// quantity negative and reports whether the reduction happened.
func (i *ShopItem) ReduceQuantity(amount int) bool {
	if amount < 0 || i.Quantity < amount {
		return false
	}
	i.Quantity -= amount
	return true
}

// AddQuantity restocks the listing.
func (i *ShopItem) AddQuantity(amount int) {
	if amount > 0 {
		i.Quantity += amount
	}
}

// IsFree reports whether the listing has no price components.
func (i *ShopItem) IsFree() bool {
	return len(i.Price) == 0
}

// DisplayName returns the user-facing name of the listed item.
func (i *ShopItem) DisplayName() string {
	return payloadDisplayName(i.Payload)
}

// FormattedPrice renders the price vector as "2x stone + 1x iron ingot".
func (i *ShopItem) FormattedPrice() string {
	if len(i.Price) == 0 {
		return "Free"
	}
	parts := make([]string, len(i.Price))
	for n, component := range i.Price {
		parts[n] = fmt.Sprintf("%dx %s", component.Count, payloadDisplayName(component.Payload))
	}
	return strings.Join(parts, " + ")
}

// Clone deep-copies the listing.
func (i *ShopItem) Clone() *ShopItem {
	clone := *i
	clone.Payload = ClonePayload(i.Payload)
	clone.Price = CloneStacks(i.Price)
	return &clone
}

func payloadDisplayName(p ItemPayload) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return strings.ReplaceAll(strings.ToLower(p.Kind), "_", " ")
}
