package shop

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nouridin/supershop/internal/domain"
	"github.com/nouridin/supershop/internal/event"
	"github.com/nouridin/supershop/internal/logger"
	"github.com/nouridin/supershop/internal/metrics"
	"github.com/nouridin/supershop/internal/repository"
	"github.com/nouridin/supershop/internal/worker"
)

// Service is the in-memory shop registry and transaction processor. It owns
// three lookup indices (location, id, owner), executes purchases as
// all-or-nothing operations, and keeps the durable store synchronized.
type Service interface {
	CreateShop(ctx context.Context, ownerID uuid.UUID, ownerName string, loc domain.Location) (*domain.Shop, error)

	GetShopAtLocation(loc domain.Location) (*domain.Shop, error)
	GetShopByID(shopID uuid.UUID) (*domain.Shop, error)
	GetShopsByOwner(ownerID uuid.UUID) []*domain.Shop
	GetAllShops() []*domain.Shop
	SearchItems(query SearchQuery) []SearchResult

	RemoveShop(ctx context.Context, shopID, actorID, settlementTarget uuid.UUID) error
	ForceRemoveShop(ctx context.Context, shopID, actorID uuid.UUID) error

	AddItemToShop(ctx context.Context, shopID uuid.UUID, item *domain.ShopItem, actorID uuid.UUID) error
	RestockItem(ctx context.Context, shopID, itemID, actorID uuid.UUID, amount int) error
	RemoveItemFromShop(ctx context.Context, shopID, itemID, actorID uuid.UUID) error
	SetShopActive(ctx context.Context, shopID, actorID uuid.UUID, active bool) error

	ProcessPurchase(ctx context.Context, buyerID uuid.UUID, shopID, itemID uuid.UUID, quantity int) (*PurchaseResult, error)
	CollectRevenue(ctx context.Context, shopID, actorID uuid.UUID) (int, error)

	GetShopStatistics() domain.Statistics

	Load(ctx context.Context) error
	SaveAll(ctx context.Context) error
}

// shopState pairs a shop with the lock that serializes its mutations.
// Purchases, listing edits and removal all take this lock, which is what
// keeps "quantity never negative" true under concurrent buyers.
type shopState struct {
	mu   sync.Mutex
	shop *domain.Shop
}

type service struct {
	store   repository.Shop
	oracle  InventoryOracle
	worlds  WorldOracle
	auth    Authorizer
	matcher domain.Matcher
	bus     event.Bus
	pool    *worker.Pool

	mu         sync.RWMutex
	byLocation map[domain.Location]*shopState
	byID       map[uuid.UUID]*shopState
	byOwner    map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewService creates the registry. All collaborators are injected; matcher
// and auth fall back to defaults when nil.
func NewService(store repository.Shop, oracle InventoryOracle, worlds WorldOracle, auth Authorizer, matcher domain.Matcher, bus event.Bus, pool *worker.Pool) Service {
	if matcher == nil {
		matcher = domain.DefaultMatcher{}
	}
	if auth == nil {
		auth = DenyAllAuthorizer{}
	}
	return &service{
		store:      store,
		oracle:     oracle,
		worlds:     worlds,
		auth:       auth,
		matcher:    matcher,
		bus:        bus,
		pool:       pool,
		byLocation: make(map[domain.Location]*shopState),
		byID:       make(map[uuid.UUID]*shopState),
		byOwner:    make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// CreateShop registers a new shop at an unoccupied location and persists it.
func (s *service) CreateShop(ctx context.Context, ownerID uuid.UUID, ownerName string, loc domain.Location) (*domain.Shop, error) {
	log := logger.FromContext(ctx)

	if ownerID == uuid.Nil || ownerName == "" || loc.World == "" {
		return nil, fmt.Errorf("%w: owner and location are required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	if _, occupied := s.byLocation[loc]; occupied {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationOccupied, loc)
	}

	shop := domain.NewShop(ownerID, ownerName, loc)
	st := &shopState{shop: shop}
	s.insertLocked(st)
	s.mu.Unlock()

	if err := s.store.SaveShop(ctx, *shop.Snapshot()); err != nil {
		// Creation is not observable until persisted; undo the insert.
		s.mu.Lock()
		s.dropLocked(st)
		s.mu.Unlock()
		log.Error("Failed to persist new shop", "error", err, "shop_id", shop.ID)
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	metrics.ShopsCreated.Inc()
	metrics.RegisteredShops.Set(float64(s.registeredCount()))
	log.Info("Shop created", "shop_id", shop.ID, "owner", ownerName, "location", loc.String())

	s.notify(ctx, event.New(event.ShopCreated, map[string]any{
		"shop_id":  shop.ID.String(),
		"owner_id": ownerID.String(),
		"location": loc.String(),
	}))

	return shop.Snapshot(), nil
}

// GetShopAtLocation returns a copy of the shop occupying the location.
func (s *service) GetShopAtLocation(loc domain.Location) (*domain.Shop, error) {
	s.mu.RLock()
	st, ok := s.byLocation[loc]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrShopNotFound
	}
	return st.snapshot(), nil
}

// GetShopByID returns a copy of the shop with the given id.
func (s *service) GetShopByID(shopID uuid.UUID) (*domain.Shop, error) {
	st := s.lookup(shopID)
	if st == nil {
		return nil, domain.ErrShopNotFound
	}
	return st.snapshot(), nil
}

// GetShopsByOwner returns copies of every shop the owner has registered.
func (s *service) GetShopsByOwner(ownerID uuid.UUID) []*domain.Shop {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.byOwner[ownerID]))
	for id := range s.byOwner[ownerID] {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	shops := make([]*domain.Shop, 0, len(ids))
	for _, id := range ids {
		if st := s.lookup(id); st != nil {
			shops = append(shops, st.snapshot())
		}
	}
	return shops
}

// GetAllShops returns copies of every registered shop.
func (s *service) GetAllShops() []*domain.Shop {
	s.mu.RLock()
	states := make([]*shopState, 0, len(s.byID))
	for _, st := range s.byID {
		states = append(states, st)
	}
	s.mu.RUnlock()

	shops := make([]*domain.Shop, 0, len(states))
	for _, st := range states {
		shops = append(shops, st.snapshot())
	}
	return shops
}

// RemoveShop removes the shop after settling its stock and revenue to the
// settlement target. Only the owner may remove a shop this way.
func (s *service) RemoveShop(ctx context.Context, shopID, actorID, settlementTarget uuid.UUID) error {
	log := logger.FromContext(ctx)

	st := s.lookup(shopID)
	if st == nil {
		return domain.ErrShopNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	shop := st.shop
	if shop.OwnerID != actorID {
		return domain.ErrNotShopOwner
	}

	if err := s.store.DeleteShop(ctx, shopID); err != nil {
		log.Error("Failed to soft-delete shop", "error", err, "shop_id", shopID)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	// Settle outstanding stock and revenue to the target. Grant failures
	// are reported, not rolled back: the removal is already durable.
	s.settleContents(ctx, shop, settlementTarget)

	shop.SetActive(false)
	s.drop(st)

	metrics.ShopsRemoved.WithLabelValues(RemovalModeSettled).Inc()
	metrics.RegisteredShops.Set(float64(s.registeredCount()))
	log.Info("Shop removed", "shop_id", shopID, "settled_to", settlementTarget)

	s.notify(ctx, event.New(event.ShopRemoved, map[string]any{
		"shop_id":  shopID.String(),
		"owner_id": shop.OwnerID.String(),
		"mode":     RemovalModeSettled,
	}))
	return nil
}

// ForceRemoveShop discards the shop without settlement. Allowed for the
// owner (GUI-driven self-removal) or an administrator.
func (s *service) ForceRemoveShop(ctx context.Context, shopID, actorID uuid.UUID) error {
	log := logger.FromContext(ctx)

	st := s.lookup(shopID)
	if st == nil {
		return domain.ErrShopNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	shop := st.shop
	if shop.OwnerID != actorID && !s.auth.IsAdmin(actorID) {
		return domain.ErrNotShopOwner
	}

	if err := s.store.DeleteShop(ctx, shopID); err != nil {
		log.Error("Failed to soft-delete shop", "error", err, "shop_id", shopID)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	shop.SetActive(false)
	s.drop(st)

	metrics.ShopsRemoved.WithLabelValues(RemovalModeDiscarded).Inc()
	metrics.RegisteredShops.Set(float64(s.registeredCount()))
	log.Info("Shop force removed", "shop_id", shopID, "actor_id", actorID)

	s.notify(ctx, event.New(event.ShopForceRemoved, map[string]any{
		"shop_id":  shopID.String(),
		"owner_id": shop.OwnerID.String(),
		"actor_id": actorID.String(),
		"mode":     RemovalModeDiscarded,
	}))
	return nil
}

// AddItemToShop lists an item in the shop. Owner-gated; the delta is
// persisted before the in-memory listing becomes visible.
func (s *service) AddItemToShop(ctx context.Context, shopID uuid.UUID, item *domain.ShopItem, actorID uuid.UUID) error {
	log := logger.FromContext(ctx)

	if item == nil || item.Quantity < 0 {
		return fmt.Errorf("%w: item with non-negative quantity required", domain.ErrInvalidInput)
	}

	st := s.lookup(shopID)
	if st == nil {
		return domain.ErrShopNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.shop.OwnerID != actorID {
		return domain.ErrNotShopOwner
	}

	if err := s.store.SaveShopItem(ctx, shopID, *item.Clone()); err != nil {
		log.Error("Failed to persist shop item", "error", err, "shop_id", shopID, "item_id", item.ID)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	st.shop.AddItem(item)
	log.Info("Item listed", "shop_id", shopID, "item_id", item.ID, "item", item.DisplayName(), "quantity", item.Quantity)

	s.notify(ctx, event.New(event.ItemListed, map[string]any{
		"shop_id": shopID.String(),
		"item_id": item.ID.String(),
		"item":    item.DisplayName(),
	}))
	return nil
}

// RestockItem adds stock to an existing listing. Owner-gated; the new
// quantity is persisted before memory sees it.
func (s *service) RestockItem(ctx context.Context, shopID, itemID, actorID uuid.UUID, amount int) error {
	log := logger.FromContext(ctx)

	if amount <= 0 {
		return fmt.Errorf("%w: restock amount must be positive", domain.ErrInvalidInput)
	}

	st := s.lookup(shopID)
	if st == nil {
		return domain.ErrShopNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.shop.OwnerID != actorID {
		return domain.ErrNotShopOwner
	}
	item := st.shop.FindItem(itemID)
	if item == nil {
		return domain.ErrItemNotFound
	}

	row := item.Clone()
	row.AddQuantity(amount)
	if err := s.store.SaveShopItem(ctx, shopID, *row); err != nil {
		log.Error("Failed to persist restock", "error", err, "shop_id", shopID, "item_id", itemID)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	item.AddQuantity(amount)
	st.shop.Touch()
	log.Info("Item restocked", "shop_id", shopID, "item_id", itemID, "added", amount, "quantity", item.Quantity)
	return nil
}

// RemoveItemFromShop delists an item. Owner-gated; soft-deletes the row.
func (s *service) RemoveItemFromShop(ctx context.Context, shopID, itemID, actorID uuid.UUID) error {
	log := logger.FromContext(ctx)

	st := s.lookup(shopID)
	if st == nil {
		return domain.ErrShopNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.shop.OwnerID != actorID {
		return domain.ErrNotShopOwner
	}
	if st.shop.FindItem(itemID) == nil {
		return domain.ErrItemNotFound
	}

	if err := s.store.DeleteShopItem(ctx, shopID, itemID); err != nil {
		log.Error("Failed to soft-delete shop item", "error", err, "shop_id", shopID, "item_id", itemID)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	st.shop.RemoveItem(itemID)
	log.Info("Item delisted", "shop_id", shopID, "item_id", itemID)

	s.notify(ctx, event.New(event.ItemDelisted, map[string]any{
		"shop_id": shopID.String(),
		"item_id": itemID.String(),
	}))
	return nil
}

// SetShopActive toggles the shop's availability. Owner-gated.
func (s *service) SetShopActive(ctx context.Context, shopID, actorID uuid.UUID, active bool) error {
	log := logger.FromContext(ctx)

	st := s.lookup(shopID)
	if st == nil {
		return domain.ErrShopNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.shop.OwnerID != actorID {
		return domain.ErrNotShopOwner
	}

	previous := st.shop.Active
	st.shop.SetActive(active)

	if err := s.store.SaveShop(ctx, *st.shop.Snapshot()); err != nil {
		st.shop.SetActive(previous)
		log.Error("Failed to persist active toggle", "error", err, "shop_id", shopID)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	log.Info("Shop active flag updated", "shop_id", shopID, "active", active)
	return nil
}

// CollectRevenue drains the revenue pool into the owner's inventory and
// returns the number of items collected.
func (s *service) CollectRevenue(ctx context.Context, shopID, actorID uuid.UUID) (int, error) {
	log := logger.FromContext(ctx)

	st := s.lookup(shopID)
	if st == nil {
		return 0, domain.ErrShopNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	shop := st.shop
	if shop.OwnerID != actorID {
		return 0, domain.ErrNotShopOwner
	}
	if !shop.HasRevenue() {
		return 0, domain.ErrNoRevenue
	}

	// Persist the drained state first so a crash cannot duplicate revenue.
	row := shop.Snapshot()
	row.Revenue = nil
	row.Touch()
	if err := s.store.SaveShop(ctx, *row); err != nil {
		log.Error("Failed to persist revenue collection", "error", err, "shop_id", shopID)
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	collected := 0
	for _, stack := range shop.Revenue {
		leftover, err := s.oracle.Grant(ctx, actorID, stack.Payload, stack.Count)
		if err != nil {
			log.Error("Failed to grant revenue stack", "error", err, "shop_id", shopID, "item", stack.Payload.Kind)
			continue
		}
		collected += stack.Count - leftover
		s.reportOverflow(ctx, actorID, stack.Payload, leftover)
	}
	shop.ClearRevenue()

	metrics.RevenueCollected.Add(float64(collected))
	log.Info("Revenue collected", "shop_id", shopID, "items", collected)

	s.notify(ctx, event.New(event.RevenueCollected, map[string]any{
		"shop_id":  shopID.String(),
		"owner_id": actorID.String(),
		"items":    collected,
	}))
	return collected, nil
}

// GetShopStatistics aggregates counters across every registered shop.
func (s *service) GetShopStatistics() domain.Statistics {
	s.mu.RLock()
	states := make([]*shopState, 0, len(s.byID))
	for _, st := range s.byID {
		states = append(states, st)
	}
	s.mu.RUnlock()

	stats := domain.Statistics{TotalShops: len(states)}
	for _, st := range states {
		st.mu.Lock()
		if st.shop.Active {
			stats.ActiveShops++
		}
		stats.TotalItems += len(st.shop.Items)
		stats.TotalRevenueItems += st.shop.TotalRevenueItems()
		st.mu.Unlock()
	}
	return stats
}

// Load replaces the in-memory registry with the store's contents. Shops in
// worlds the world oracle reports unavailable are skipped and stay dormant
// until their world returns.
func (s *service) Load(ctx context.Context) error {
	log := logger.FromContext(ctx)

	shops, err := s.store.LoadAllShops(ctx)
	if err != nil {
		return fmt.Errorf("load shops: %w", err)
	}

	s.mu.Lock()
	s.byLocation = make(map[domain.Location]*shopState)
	s.byID = make(map[uuid.UUID]*shopState)
	s.byOwner = make(map[uuid.UUID]map[uuid.UUID]struct{})

	loaded, orphaned := 0, 0
	for _, shop := range shops {
		if s.worlds != nil && !s.worlds.WorldAvailable(shop.Location.World) {
			orphaned++
			log.Warn("Skipping shop in unavailable world", "shop_id", shop.ID, "world", shop.Location.World)
			continue
		}
		s.insertLocked(&shopState{shop: shop})
		loaded++
	}
	s.mu.Unlock()

	metrics.RegisteredShops.Set(float64(loaded))
	log.Info("Shops loaded from store", "loaded", loaded, "orphaned", orphaned)
	return nil
}

// SaveAll persists every registered shop. Used for the shutdown flush.
func (s *service) SaveAll(ctx context.Context) error {
	log := logger.FromContext(ctx)

	var firstErr error
	saved := 0
	for _, st := range s.states() {
		st.mu.Lock()
		row := st.shop.Snapshot()
		st.mu.Unlock()

		if err := s.store.SaveShop(ctx, *row); err != nil {
			log.Error("Failed to save shop", "error", err, "shop_id", row.ID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, item := range row.Items {
			if err := s.store.SaveShopItem(ctx, row.ID, *item); err != nil {
				log.Error("Failed to save shop item", "error", err, "shop_id", row.ID, "item_id", item.ID)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		saved++
	}

	log.Info("Shops saved to store", "saved", saved)
	if firstErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, firstErr)
	}
	return nil
}

// ---- index helpers ----

func (st *shopState) snapshot() *domain.Shop {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.shop.Snapshot()
}

func (s *service) lookup(shopID uuid.UUID) *shopState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[shopID]
}

func (s *service) states() []*shopState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*shopState, 0, len(s.byID))
	for _, st := range s.byID {
		out = append(out, st)
	}
	return out
}

func (s *service) registeredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// insertLocked adds the shop to all three indices. Caller holds s.mu.
func (s *service) insertLocked(st *shopState) {
	shop := st.shop
	s.byLocation[shop.Location] = st
	s.byID[shop.ID] = st
	owned, ok := s.byOwner[shop.OwnerID]
	if !ok {
		owned = make(map[uuid.UUID]struct{})
		s.byOwner[shop.OwnerID] = owned
	}
	owned[shop.ID] = struct{}{}
}

// dropLocked removes the shop from all three indices. Caller holds s.mu.
func (s *service) dropLocked(st *shopState) {
	shop := st.shop
	delete(s.byLocation, shop.Location)
	delete(s.byID, shop.ID)
	if owned, ok := s.byOwner[shop.OwnerID]; ok {
		delete(owned, shop.ID)
		if len(owned) == 0 {
			delete(s.byOwner, shop.OwnerID)
		}
	}
}

func (s *service) drop(st *shopState) {
	s.mu.Lock()
	s.dropLocked(st)
	s.mu.Unlock()
}

// settleContents grants the shop's stock and revenue to the target actor.
func (s *service) settleContents(ctx context.Context, shop *domain.Shop, target uuid.UUID) {
	log := logger.FromContext(ctx)

	for _, item := range shop.Items {
		if item.Quantity <= 0 {
			continue
		}
		leftover, err := s.oracle.Grant(ctx, target, item.Payload, item.Quantity)
		if err != nil {
			log.Error("Failed to settle stock", "error", err, "shop_id", shop.ID, "item_id", item.ID)
			continue
		}
		s.reportOverflow(ctx, target, item.Payload, leftover)
	}
	for _, stack := range shop.Revenue {
		leftover, err := s.oracle.Grant(ctx, target, stack.Payload, stack.Count)
		if err != nil {
			log.Error("Failed to settle revenue", "error", err, "shop_id", shop.ID, "item", stack.Payload.Kind)
			continue
		}
		s.reportOverflow(ctx, target, stack.Payload, leftover)
	}
}

// reportOverflow hands leftover items that did not fit an inventory to the
// presentation layer, which decides whether to drop or return them.
func (s *service) reportOverflow(ctx context.Context, actorID uuid.UUID, payload domain.ItemPayload, leftover int) {
	if leftover <= 0 {
		return
	}
	logger.FromContext(ctx).Warn("Inventory overflow during grant", "actor_id", actorID, "item", payload.Kind, "leftover", leftover)
	s.notify(ctx, event.New(event.GrantOverflow, map[string]any{
		"actor_id": actorID.String(),
		"item":     payload.Kind,
		"leftover": leftover,
	}))
}

// notify publishes the event through the worker pool when one is wired,
// falling back to synchronous publishing. Notification failures never fail
// the operation that produced them.
func (s *service) notify(ctx context.Context, ev event.Event) {
	if s.bus == nil {
		return
	}
	publish := worker.JobFunc(func(jobCtx context.Context) error {
		return s.bus.Publish(jobCtx, ev)
	})
	if s.pool != nil && s.pool.TryEnqueue(publish) {
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish event", "error", err, "type", ev.Type)
	}
}
