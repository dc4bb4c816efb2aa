package shop

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nouridin/supershop/internal/domain"
	"github.com/nouridin/supershop/internal/inventory"
)

func stonePayload() domain.ItemPayload {
	return domain.ItemPayload{Kind: "STONE", StackLimit: 64}
}

func emeraldPayload() domain.ItemPayload {
	return domain.ItemPayload{Kind: "EMERALD", StackLimit: 64}
}

func stackOf(p domain.ItemPayload, count int) domain.ItemStack {
	return domain.ItemStack{Payload: p, Count: count}
}

func testLocation() domain.Location {
	return domain.Location{World: "world", X: 10, Y: 64, Z: -5}
}

func newTestService(store *MockStore, oracle InventoryOracle) Service {
	return NewService(store, oracle, nil, nil, nil, nil, nil)
}

func TestCreateShop(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("Registers the shop in all three indices", func(t *testing.T) {
		store := acceptAllStore()
		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))

		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.True(t, created.Active)

		byLoc, err := svc.GetShopAtLocation(testLocation())
		require.NoError(t, err)
		assert.Equal(t, created.ID, byLoc.ID)

		byID, err := svc.GetShopByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, byID.ID)

		owned := svc.GetShopsByOwner(owner)
		require.Len(t, owned, 1)
		assert.Equal(t, created.ID, owned[0].ID)
	})

	t.Run("Occupied location is rejected", func(t *testing.T) {
		store := acceptAllStore()
		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))

		_, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		_, err = svc.CreateShop(ctx, uuid.New(), "bob", testLocation())
		assert.ErrorIs(t, err, domain.ErrLocationOccupied)
	})

	t.Run("Same owner can hold multiple shops", func(t *testing.T) {
		store := acceptAllStore()
		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))

		_, err := svc.CreateShop(ctx, owner, "alice", domain.Location{World: "world", X: 1})
		require.NoError(t, err)
		_, err = svc.CreateShop(ctx, owner, "alice", domain.Location{World: "world", X: 2})
		require.NoError(t, err)

		assert.Len(t, svc.GetShopsByOwner(owner), 2)
	})

	t.Run("Persistence failure undoes the registration", func(t *testing.T) {
		store := &MockStore{}
		store.On("SaveShop", mock.Anything, mock.Anything).Return(assert.AnError)
		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))

		_, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		assert.ErrorIs(t, err, domain.ErrPersistence)

		// Location must be free again.
		_, err = svc.GetShopAtLocation(testLocation())
		assert.ErrorIs(t, err, domain.ErrShopNotFound)
	})

	t.Run("Missing owner or world is invalid", func(t *testing.T) {
		svc := newTestService(acceptAllStore(), inventory.NewMemoryOracle(nil, inventory.Unbounded))

		_, err := svc.CreateShop(ctx, uuid.Nil, "alice", testLocation())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = svc.CreateShop(ctx, owner, "", testLocation())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = svc.CreateShop(ctx, owner, "alice", domain.Location{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestAddAndRemoveItems(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	setup := func(t *testing.T) (Service, *domain.Shop) {
		svc := newTestService(acceptAllStore(), inventory.NewMemoryOracle(nil, inventory.Unbounded))
		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)
		return svc, created
	}

	t.Run("Owner lists and delists an item", func(t *testing.T) {
		svc, created := setup(t)
		item := domain.NewShopItem(stonePayload(), 10, []domain.ItemStack{stackOf(emeraldPayload(), 1)}, "bulk stone")

		require.NoError(t, svc.AddItemToShop(ctx, created.ID, item, owner))

		got, err := svc.GetShopByID(created.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, item.ID, got.Items[0].ID)

		require.NoError(t, svc.RemoveItemFromShop(ctx, created.ID, item.ID, owner))

		got, err = svc.GetShopByID(created.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Items)
	})

	t.Run("Non-owner cannot touch listings", func(t *testing.T) {
		svc, created := setup(t)
		item := domain.NewShopItem(stonePayload(), 10, nil, "")
		stranger := uuid.New()

		assert.ErrorIs(t, svc.AddItemToShop(ctx, created.ID, item, stranger), domain.ErrNotShopOwner)

		require.NoError(t, svc.AddItemToShop(ctx, created.ID, item, owner))
		assert.ErrorIs(t, svc.RemoveItemFromShop(ctx, created.ID, item.ID, stranger), domain.ErrNotShopOwner)
	})

	t.Run("Unknown shop and item are reported", func(t *testing.T) {
		svc, created := setup(t)

		err := svc.AddItemToShop(ctx, uuid.New(), domain.NewShopItem(stonePayload(), 1, nil, ""), owner)
		assert.ErrorIs(t, err, domain.ErrShopNotFound)

		err = svc.RemoveItemFromShop(ctx, created.ID, uuid.New(), owner)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("Negative quantity is invalid", func(t *testing.T) {
		svc, created := setup(t)
		item := domain.NewShopItem(stonePayload(), -1, nil, "")
		assert.ErrorIs(t, svc.AddItemToShop(ctx, created.ID, item, owner), domain.ErrInvalidInput)
	})
}

func TestRemoveShop(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("Settles stock and revenue to the target", func(t *testing.T) {
		oracle := inventory.NewMemoryOracle(nil, inventory.Unbounded)
		svc := newTestService(acceptAllStore(), oracle)

		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		item := domain.NewShopItem(stonePayload(), 40, nil, "")
		require.NoError(t, svc.AddItemToShop(ctx, created.ID, item, owner))

		require.NoError(t, svc.RemoveShop(ctx, created.ID, owner, owner))

		assert.Equal(t, 40, oracle.Count(owner, stonePayload()))

		_, err = svc.GetShopByID(created.ID)
		assert.ErrorIs(t, err, domain.ErrShopNotFound)

		// Location is free for a new shop.
		_, err = svc.CreateShop(ctx, uuid.New(), "bob", testLocation())
		assert.NoError(t, err)
	})

	t.Run("Only the owner may remove", func(t *testing.T) {
		svc := newTestService(acceptAllStore(), inventory.NewMemoryOracle(nil, inventory.Unbounded))
		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		stranger := uuid.New()
		assert.ErrorIs(t, svc.RemoveShop(ctx, created.ID, stranger, stranger), domain.ErrNotShopOwner)
	})

	t.Run("Persistence failure keeps the shop registered", func(t *testing.T) {
		store := &MockStore{}
		store.On("SaveShop", mock.Anything, mock.Anything).Return(nil)
		store.On("DeleteShop", mock.Anything, mock.Anything).Return(assert.AnError)
		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))

		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		err = svc.RemoveShop(ctx, created.ID, owner, owner)
		assert.ErrorIs(t, err, domain.ErrPersistence)

		_, err = svc.GetShopByID(created.ID)
		assert.NoError(t, err)
	})
}

func TestForceRemoveShop(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	admin := uuid.New()

	newSvc := func() (Service, *domain.Shop) {
		svc := NewService(acceptAllStore(), inventory.NewMemoryOracle(nil, inventory.Unbounded), nil, allowAuthorizer{admin: admin}, nil, nil, nil)
		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)
		return svc, created
	}

	t.Run("Admin may discard another owner's shop", func(t *testing.T) {
		svc, created := newSvc()
		require.NoError(t, svc.ForceRemoveShop(ctx, created.ID, admin))

		_, err := svc.GetShopByID(created.ID)
		assert.ErrorIs(t, err, domain.ErrShopNotFound)
	})

	t.Run("Owner may discard their own shop", func(t *testing.T) {
		svc, created := newSvc()
		assert.NoError(t, svc.ForceRemoveShop(ctx, created.ID, owner))
	})

	t.Run("Stranger is denied", func(t *testing.T) {
		svc, created := newSvc()
		assert.ErrorIs(t, svc.ForceRemoveShop(ctx, created.ID, uuid.New()), domain.ErrNotShopOwner)
	})

	t.Run("Discard does not settle contents", func(t *testing.T) {
		oracle := inventory.NewMemoryOracle(nil, inventory.Unbounded)
		svc := NewService(acceptAllStore(), oracle, nil, allowAuthorizer{admin: admin}, nil, nil, nil)

		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)
		require.NoError(t, svc.AddItemToShop(ctx, created.ID, domain.NewShopItem(stonePayload(), 40, nil, ""), owner))

		require.NoError(t, svc.ForceRemoveShop(ctx, created.ID, admin))
		assert.Zero(t, oracle.Count(owner, stonePayload()))
	})
}

func TestSetShopActive(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("Toggles and persists the flag", func(t *testing.T) {
		svc := newTestService(acceptAllStore(), inventory.NewMemoryOracle(nil, inventory.Unbounded))
		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		require.NoError(t, svc.SetShopActive(ctx, created.ID, owner, false))

		got, err := svc.GetShopByID(created.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("Persistence failure reverts the toggle", func(t *testing.T) {
		store := &MockStore{}
		store.On("SaveShop", mock.Anything, mock.Anything).Return(nil).Once()
		store.On("SaveShop", mock.Anything, mock.Anything).Return(assert.AnError)
		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))
		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		err = svc.SetShopActive(ctx, created.ID, owner, false)
		assert.ErrorIs(t, err, domain.ErrPersistence)

		got, err := svc.GetShopByID(created.ID)
		require.NoError(t, err)
		assert.True(t, got.Active)
	})
}

func TestCollectRevenue(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	buyer := uuid.New()

	t.Run("Drains the pool into the owner's inventory", func(t *testing.T) {
		oracle := inventory.NewMemoryOracle(nil, inventory.Unbounded)
		svc := newTestService(acceptAllStore(), oracle)

		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		item := domain.NewShopItem(stonePayload(), 10, []domain.ItemStack{stackOf(emeraldPayload(), 2)}, "")
		require.NoError(t, svc.AddItemToShop(ctx, created.ID, item, owner))

		_, err = oracle.Grant(ctx, buyer, emeraldPayload(), 10)
		require.NoError(t, err)
		_, err = svc.ProcessPurchase(ctx, buyer, created.ID, item.ID, 3)
		require.NoError(t, err)

		collected, err := svc.CollectRevenue(ctx, created.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, 6, collected)
		assert.Equal(t, 6, oracle.Count(owner, emeraldPayload()))

		// Second collection finds nothing.
		_, err = svc.CollectRevenue(ctx, created.ID, owner)
		assert.ErrorIs(t, err, domain.ErrNoRevenue)
	})

	t.Run("Owner gate and empty pool", func(t *testing.T) {
		svc := newTestService(acceptAllStore(), inventory.NewMemoryOracle(nil, inventory.Unbounded))
		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		_, err = svc.CollectRevenue(ctx, created.ID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotShopOwner)

		_, err = svc.CollectRevenue(ctx, created.ID, owner)
		assert.ErrorIs(t, err, domain.ErrNoRevenue)
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("Skips shops in unavailable worlds", func(t *testing.T) {
		present := domain.NewShop(owner, "alice", domain.Location{World: "world", X: 1})
		missing := domain.NewShop(owner, "alice", domain.Location{World: "moon", X: 1})

		store := acceptAllStore()
		store.On("LoadAllShops", mock.Anything).Return([]*domain.Shop{present, missing}, nil)

		svc := NewService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded), staticWorlds{"world": true}, nil, nil, nil, nil)
		require.NoError(t, svc.Load(ctx))

		_, err := svc.GetShopByID(present.ID)
		assert.NoError(t, err)

		_, err = svc.GetShopByID(missing.ID)
		assert.ErrorIs(t, err, domain.ErrShopNotFound)
	})

	t.Run("Load replaces previous registry state", func(t *testing.T) {
		store := acceptAllStore()
		store.On("LoadAllShops", mock.Anything).Return([]*domain.Shop{}, nil)

		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))
		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		require.NoError(t, svc.Load(ctx))
		_, err = svc.GetShopByID(created.ID)
		assert.ErrorIs(t, err, domain.ErrShopNotFound)
	})

	t.Run("Store failure surfaces", func(t *testing.T) {
		store := &MockStore{}
		store.On("LoadAllShops", mock.Anything).Return(nil, assert.AnError)

		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))
		assert.Error(t, svc.Load(ctx))
	})
}

func TestSaveAll(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("Persists every shop and its listings", func(t *testing.T) {
		store := acceptAllStore()
		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))

		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)
		require.NoError(t, svc.AddItemToShop(ctx, created.ID, domain.NewShopItem(stonePayload(), 5, nil, ""), owner))

		require.NoError(t, svc.SaveAll(ctx))
		store.AssertCalled(t, "SaveShopItem", mock.Anything, created.ID, mock.Anything)
	})

	t.Run("First error is reported after trying every shop", func(t *testing.T) {
		store := &MockStore{}
		store.On("SaveShop", mock.Anything, mock.Anything).Return(nil).Once()
		store.On("SaveShop", mock.Anything, mock.Anything).Return(assert.AnError)
		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))

		_, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)

		assert.ErrorIs(t, svc.SaveAll(ctx), domain.ErrPersistence)
	})
}

func TestGetShopStatistics(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	buyer := uuid.New()

	oracle := inventory.NewMemoryOracle(nil, inventory.Unbounded)
	svc := newTestService(acceptAllStore(), oracle)

	first, err := svc.CreateShop(ctx, owner, "alice", domain.Location{World: "world", X: 1})
	require.NoError(t, err)
	second, err := svc.CreateShop(ctx, owner, "alice", domain.Location{World: "world", X: 2})
	require.NoError(t, err)

	item := domain.NewShopItem(stonePayload(), 10, []domain.ItemStack{stackOf(emeraldPayload(), 1)}, "")
	require.NoError(t, svc.AddItemToShop(ctx, first.ID, item, owner))
	require.NoError(t, svc.SetShopActive(ctx, second.ID, owner, false))

	_, err = oracle.Grant(ctx, buyer, emeraldPayload(), 5)
	require.NoError(t, err)
	_, err = svc.ProcessPurchase(ctx, buyer, first.ID, item.ID, 2)
	require.NoError(t, err)

	stats := svc.GetShopStatistics()
	assert.Equal(t, 2, stats.TotalShops)
	assert.Equal(t, 1, stats.ActiveShops)
	assert.Equal(t, 1, stats.TotalItems)
	assert.Equal(t, 2, stats.TotalRevenueItems)
}

func TestRestockItem(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	setup := func(t *testing.T, store *MockStore) (Service, *domain.Shop, *domain.ShopItem) {
		svc := newTestService(store, inventory.NewMemoryOracle(nil, inventory.Unbounded))
		created, err := svc.CreateShop(ctx, owner, "alice", testLocation())
		require.NoError(t, err)
		item := domain.NewShopItem(stonePayload(), 5, nil, "")
		require.NoError(t, svc.AddItemToShop(ctx, created.ID, item, owner))
		return svc, created, item
	}

	t.Run("Owner adds stock", func(t *testing.T) {
		store := acceptAllStore()
		svc, created, item := setup(t, store)

		require.NoError(t, svc.RestockItem(ctx, created.ID, item.ID, owner, 7))

		got, err := svc.GetShopByID(created.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 12, got.Items[0].Quantity)

		// The persisted row carries the new quantity.
		store.AssertCalled(t, "SaveShopItem", mock.Anything, created.ID,
			mock.MatchedBy(func(row domain.ShopItem) bool { return row.Quantity == 12 }))
	})

	t.Run("Stranger is rejected", func(t *testing.T) {
		svc, created, item := setup(t, acceptAllStore())
		err := svc.RestockItem(ctx, created.ID, item.ID, uuid.New(), 1)
		assert.ErrorIs(t, err, domain.ErrNotShopOwner)
	})

	t.Run("Non-positive amounts are invalid", func(t *testing.T) {
		svc, created, item := setup(t, acceptAllStore())
		assert.ErrorIs(t, svc.RestockItem(ctx, created.ID, item.ID, owner, 0), domain.ErrInvalidInput)
		assert.ErrorIs(t, svc.RestockItem(ctx, created.ID, item.ID, owner, -3), domain.ErrInvalidInput)
	})

	t.Run("Unknown shop or item", func(t *testing.T) {
		svc, created, _ := setup(t, acceptAllStore())
		assert.ErrorIs(t, svc.RestockItem(ctx, uuid.New(), uuid.New(), owner, 1), domain.ErrShopNotFound)
		assert.ErrorIs(t, svc.RestockItem(ctx, created.ID, uuid.New(), owner, 1), domain.ErrItemNotFound)
	})

	t.Run("Persistence failure leaves the quantity alone", func(t *testing.T) {
		store := &MockStore{}
		store.On("SaveShop", mock.Anything, mock.Anything).Return(nil)
		store.On("SaveShopItem", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once() // listing
		store.On("SaveShopItem", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
		svc, created, item := setup(t, store)

		err := svc.RestockItem(ctx, created.ID, item.ID, owner, 7)
		assert.ErrorIs(t, err, domain.ErrPersistence)

		got, err := svc.GetShopByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Items[0].Quantity)
	})
}
