package shop

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nouridin/supershop/internal/domain"
)

// MockStore mocks the repository.Shop interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveShop(ctx context.Context, shop domain.Shop) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

func (m *MockStore) SaveShopItem(ctx context.Context, shopID uuid.UUID, item domain.ShopItem) error {
	args := m.Called(ctx, shopID, item)
	return args.Error(0)
}

func (m *MockStore) DeleteShop(ctx context.Context, shopID uuid.UUID) error {
	args := m.Called(ctx, shopID)
	return args.Error(0)
}

func (m *MockStore) DeleteShopItem(ctx context.Context, shopID, itemID uuid.UUID) error {
	args := m.Called(ctx, shopID, itemID)
	return args.Error(0)
}

func (m *MockStore) LoadAllShops(ctx context.Context) ([]*domain.Shop, error) {
	args := m.Called(ctx)
	if shops, ok := args.Get(0).([]*domain.Shop); ok {
		return shops, args.Error(1)
	}
	return nil, args.Error(1)
}

// acceptAllStore is a store that accepts every write. Used by tests that
// exercise registry behavior rather than persistence ordering.
func acceptAllStore() *MockStore {
	store := &MockStore{}
	store.On("SaveShop", mock.Anything, mock.Anything).Return(nil).Maybe()
	store.On("SaveShopItem", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	store.On("DeleteShop", mock.Anything, mock.Anything).Return(nil).Maybe()
	store.On("DeleteShopItem", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return store
}

// allowAuthorizer treats a fixed actor as an administrator.
type allowAuthorizer struct {
	admin uuid.UUID
}

func (a allowAuthorizer) IsAdmin(actorID uuid.UUID) bool { return actorID == a.admin }

// staticWorlds reports a fixed set of worlds as available.
type staticWorlds map[string]bool

func (w staticWorlds) WorldAvailable(name string) bool { return w[name] }
