package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nouridin/supershop/internal/domain"
)

// Shop defines the interface for shop persistence. Saves are upserts keyed
// by id; deletes are soft (rows retained for audit and recovery).
type Shop interface {
	// SaveShop upserts the shop row. Revenue is serialized through the
	// item codec; listings are saved individually via SaveShopItem.
	SaveShop(ctx context.Context, shop domain.Shop) error

	// SaveShopItem upserts a single listing row for the given shop.
	SaveShopItem(ctx context.Context, shopID uuid.UUID, item domain.ShopItem) error

	// DeleteShop marks the shop inactive. The row is retained.
	DeleteShop(ctx context.Context, shopID uuid.UUID) error

	// DeleteShopItem marks the listing unavailable. The row is retained.
	DeleteShopItem(ctx context.Context, shopID, itemID uuid.UUID) error

	// LoadAllShops reconstructs every active shop with its available,
	// in-stock listings. Rows that fail to decode are skipped with a
	// logged warning rather than failing the whole load.
	LoadAllShops(ctx context.Context) ([]*domain.Shop, error)
}
