package shop

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nouridin/supershop/internal/domain"
	"github.com/nouridin/supershop/internal/event"
	"github.com/nouridin/supershop/internal/logger"
	"github.com/nouridin/supershop/internal/metrics"
)

// PurchaseResult describes a completed purchase.
type PurchaseResult struct {
	ShopID   uuid.UUID          `json:"shop_id"`
	ItemID   uuid.UUID          `json:"item_id"`
	Item     string             `json:"item"`
	Quantity int                `json:"quantity"`
	Paid     []domain.ItemStack `json:"paid"`
	SoldOut  bool               `json:"sold_out"`
	Leftover int                `json:"leftover,omitempty"`
}

// ProcessPurchase executes a purchase as a single logical transaction
// against the shop item. Validation failures abort with zero side effects;
// a persistence failure refunds the buyer and leaves the in-memory state
// untouched. The shop's lock is held for the whole operation, so racing
// buyers on the same item are serialized.
func (s *service) ProcessPurchase(ctx context.Context, buyerID uuid.UUID, shopID, itemID uuid.UUID, quantity int) (*PurchaseResult, error) {
	log := logger.FromContext(ctx)

	if quantity <= 0 || quantity > MaxPurchaseQuantity {
		metrics.PurchaseFailures.WithLabelValues(FailReasonInvalidInput).Inc()
		return nil, fmt.Errorf("%w: quantity %d", domain.ErrInvalidInput, quantity)
	}

	st := s.lookup(shopID)
	if st == nil {
		metrics.PurchaseFailures.WithLabelValues(FailReasonNotFound).Inc()
		return nil, domain.ErrShopNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	shop := st.shop
	if !shop.Active {
		metrics.PurchaseFailures.WithLabelValues(FailReasonUnavailable).Inc()
		return nil, fmt.Errorf("%w: shop is inactive", domain.ErrItemUnavailable)
	}

	item := shop.FindItem(itemID)
	if item == nil {
		metrics.PurchaseFailures.WithLabelValues(FailReasonNotFound).Inc()
		return nil, domain.ErrItemNotFound
	}
	if !item.IsAvailable() {
		metrics.PurchaseFailures.WithLabelValues(FailReasonUnavailable).Inc()
		return nil, fmt.Errorf("%w: %s", domain.ErrItemUnavailable, item.DisplayName())
	}
	if item.Quantity < quantity {
		metrics.PurchaseFailures.WithLabelValues(FailReasonStock).Inc()
		return nil, fmt.Errorf("%w: %d in stock, %d requested", domain.ErrInsufficientStock, item.Quantity, quantity)
	}

	// Affordability check against the oracle before anything is removed.
	payment := scalePrice(item.Price, quantity)
	for _, component := range payment {
		ok, err := s.oracle.HasAtLeast(ctx, buyerID, component.Payload, component.Count)
		if err != nil {
			return nil, fmt.Errorf("inventory check: %w", err)
		}
		if !ok {
			metrics.PurchaseFailures.WithLabelValues(FailReasonFunds).Inc()
			return nil, fmt.Errorf("%w: need %dx %s", domain.ErrInsufficientFunds, component.Count, component.Payload.Kind)
		}
	}

	// Take the payment. Component removal is all-or-nothing per stack; if
	// a later component fails, already-removed ones are refunded.
	if err := s.removePayment(ctx, buyerID, payment); err != nil {
		metrics.PurchaseFailures.WithLabelValues(FailReasonFunds).Inc()
		return nil, err
	}

	// Compute the post-purchase state on copies, persist it, and only then
	// commit it to memory. A persistence failure refunds the buyer.
	newQuantity := item.Quantity - quantity
	newRevenue := domain.CloneStacks(shop.Revenue)
	for _, component := range payment {
		newRevenue = domain.MergeStack(newRevenue, domain.CloneStack(component), s.matcher)
	}

	if err := s.persistPurchase(ctx, shop, item, newQuantity, newRevenue); err != nil {
		s.refundPayment(ctx, buyerID, payment)
		metrics.PurchaseFailures.WithLabelValues(FailReasonPersistence).Inc()
		log.Error("Purchase aborted on persistence failure", "error", err, "shop_id", shopID, "item_id", itemID)
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	// Commit.
	item.Quantity = newQuantity
	shop.Revenue = newRevenue
	shop.Touch()

	soldOut := newQuantity == 0
	if soldOut {
		shop.RemoveItem(item.ID)
	}

	// Grant the purchased units. The sale is already committed; a grant
	// shortfall is surfaced to the presentation layer, never rolled back.
	leftover, err := s.oracle.Grant(ctx, buyerID, item.Payload, quantity)
	if err != nil {
		log.Error("Failed to grant purchased items", "error", err, "buyer_id", buyerID, "item_id", itemID)
	}
	s.reportOverflow(ctx, buyerID, item.Payload, leftover)

	metrics.Purchases.Inc()
	metrics.ItemsSold.Add(float64(quantity))
	log.Info("Purchase completed",
		"shop_id", shopID,
		"item_id", itemID,
		"buyer_id", buyerID,
		"quantity", quantity,
		"sold_out", soldOut)

	s.notify(ctx, event.New(event.ItemPurchased, map[string]any{
		"shop_id":  shopID.String(),
		"owner_id": shop.OwnerID.String(),
		"buyer_id": buyerID.String(),
		"item":     item.DisplayName(),
		"quantity": quantity,
	}))
	if soldOut {
		s.notify(ctx, event.New(event.ItemSoldOut, map[string]any{
			"shop_id":  shopID.String(),
			"owner_id": shop.OwnerID.String(),
			"item":     item.DisplayName(),
		}))
	}

	return &PurchaseResult{
		ShopID:   shopID,
		ItemID:   itemID,
		Item:     item.DisplayName(),
		Quantity: quantity,
		Paid:     payment,
		SoldOut:  soldOut,
		Leftover: leftover,
	}, nil
}

// scalePrice multiplies every price component by the purchase quantity.
func scalePrice(price []domain.ItemStack, quantity int) []domain.ItemStack {
	scaled := make([]domain.ItemStack, len(price))
	for i, component := range price {
		scaled[i] = domain.CloneStack(component)
		scaled[i].Count = component.Count * quantity
	}
	return scaled
}

// removePayment takes every payment stack from the buyer, refunding the
// stacks already removed if a later one fails.
func (s *service) removePayment(ctx context.Context, buyerID uuid.UUID, payment []domain.ItemStack) error {
	for i, component := range payment {
		if err := s.oracle.Remove(ctx, buyerID, component.Payload, component.Count); err != nil {
			s.refundPayment(ctx, buyerID, payment[:i])
			return fmt.Errorf("%w: %v", domain.ErrInsufficientFunds, err)
		}
	}
	return nil
}

// refundPayment returns removed payment stacks to the buyer. Best effort:
// a failing refund is logged, there is nothing further to unwind.
func (s *service) refundPayment(ctx context.Context, buyerID uuid.UUID, payment []domain.ItemStack) {
	log := logger.FromContext(ctx)
	for _, component := range payment {
		leftover, err := s.oracle.Grant(ctx, buyerID, component.Payload, component.Count)
		if err != nil {
			log.Error("Failed to refund payment", "error", err, "buyer_id", buyerID, "item", component.Payload.Kind)
			continue
		}
		s.reportOverflow(ctx, buyerID, component.Payload, leftover)
	}
}

// persistPurchase writes the post-purchase rows: the item row (or its soft
// delete when stock hits zero) followed by the shop row carrying the new
// revenue. If the shop row fails after the item row was updated, the item
// row is restored so the store stays consistent with memory.
func (s *service) persistPurchase(ctx context.Context, shop *domain.Shop, item *domain.ShopItem, newQuantity int, newRevenue []domain.ItemStack) error {
	if newQuantity == 0 {
		if err := s.store.DeleteShopItem(ctx, shop.ID, item.ID); err != nil {
			return fmt.Errorf("delist item: %w", err)
		}
	} else {
		row := item.Clone()
		row.Quantity = newQuantity
		if err := s.store.SaveShopItem(ctx, shop.ID, *row); err != nil {
			return fmt.Errorf("save item: %w", err)
		}
	}

	// The item row is updated by the time we get here, so a shop row
	// failure always restores it.
	row := shop.Snapshot()
	row.Revenue = domain.CloneStacks(newRevenue)
	row.Touch()
	if err := s.store.SaveShop(ctx, *row); err != nil {
		if undoErr := s.store.SaveShopItem(ctx, shop.ID, *item.Clone()); undoErr != nil {
			logger.FromContext(ctx).Error("Failed to restore item row after aborted purchase", "error", undoErr, "item_id", item.ID)
		}
		return fmt.Errorf("save shop: %w", err)
	}
	return nil
}
