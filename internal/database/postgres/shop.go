package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nouridin/supershop/internal/codec"
	"github.com/nouridin/supershop/internal/domain"
	"github.com/nouridin/supershop/internal/logger"
	"github.com/nouridin/supershop/internal/repository"
)

// payloadCacheSize bounds the decoded-payload cache. Listings repeat the
// same item blobs heavily, so reloads hit the cache for almost every row.
const payloadCacheSize = 1024

// ShopRepository implements the shop persistence gateway for PostgreSQL.
type ShopRepository struct {
	db    *pgxpool.Pool
	cache *lru.Cache[string, domain.ItemStack]
}

// NewShopRepository creates a new ShopRepository.
func NewShopRepository(db *pgxpool.Pool) (*ShopRepository, error) {
	cache, err := lru.New[string, domain.ItemStack](payloadCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create payload cache: %w", err)
	}
	return &ShopRepository{db: db, cache: cache}, nil
}

var _ repository.Shop = (*ShopRepository)(nil)

// SaveShop upserts the shop row. Revenue is stored as a Base64 codec blob.
func (r *ShopRepository) SaveShop(ctx context.Context, shop domain.Shop) error {
	revenueData, err := codec.EncodeStacks(shop.Revenue)
	if err != nil {
		return fmt.Errorf("encode revenue: %w", err)
	}

	query := `
		INSERT INTO shops (shop_id, owner_id, owner_name, world_name, x, y, z, is_active, created_at, last_updated, revenue_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (shop_id) DO UPDATE SET
			owner_name = EXCLUDED.owner_name,
			world_name = EXCLUDED.world_name,
			x = EXCLUDED.x,
			y = EXCLUDED.y,
			z = EXCLUDED.z,
			is_active = EXCLUDED.is_active,
			last_updated = EXCLUDED.last_updated,
			revenue_data = EXCLUDED.revenue_data
	`

	_, err = r.db.Exec(ctx, query,
		shop.ID,
		shop.OwnerID,
		shop.OwnerName,
		shop.Location.World,
		shop.Location.X,
		shop.Location.Y,
		shop.Location.Z,
		shop.Active,
		shop.CreatedAt.UnixMilli(),
		shop.LastUpdated.UnixMilli(),
		revenueData,
	)
	if err != nil {
		return fmt.Errorf("save shop %s: %w", shop.ID, err)
	}
	return nil
}

// SaveShopItem upserts a listing row. The template payload and price vector
// are stored as Base64 codec blobs.
func (r *ShopRepository) SaveShopItem(ctx context.Context, shopID uuid.UUID, item domain.ShopItem) error {
	itemData, err := codec.EncodeStack(domain.ItemStack{Payload: item.Payload, Count: 1})
	if err != nil {
		return fmt.Errorf("encode item payload: %w", err)
	}
	priceData, err := codec.EncodeStacks(item.Price)
	if err != nil {
		return fmt.Errorf("encode price vector: %w", err)
	}

	query := `
		INSERT INTO shop_items (item_id, shop_id, item_data, quantity, description, price_data, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (item_id) DO UPDATE SET
			item_data = EXCLUDED.item_data,
			quantity = EXCLUDED.quantity,
			description = EXCLUDED.description,
			price_data = EXCLUDED.price_data,
			is_available = EXCLUDED.is_available
	`

	_, err = r.db.Exec(ctx, query,
		item.ID,
		shopID,
		itemData,
		item.Quantity,
		item.Description,
		priceData,
		item.Available,
	)
	if err != nil {
		return fmt.Errorf("save shop item %s: %w", item.ID, err)
	}
	return nil
}

// DeleteShop soft-deletes the shop row; it is retained for audit/recovery.
func (r *ShopRepository) DeleteShop(ctx context.Context, shopID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE shops SET is_active = FALSE WHERE shop_id = $1`, shopID)
	if err != nil {
		return fmt.Errorf("delete shop %s: %w", shopID, err)
	}
	return nil
}

// DeleteShopItem soft-deletes a listing row.
func (r *ShopRepository) DeleteShopItem(ctx context.Context, shopID, itemID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE shop_items SET is_available = FALSE WHERE shop_id = $1 AND item_id = $2`, shopID, itemID)
	if err != nil {
		return fmt.Errorf("delete shop item %s: %w", itemID, err)
	}
	return nil
}

// LoadAllShops reconstructs every active shop with its available listings.
// Rows that fail to decode are skipped with a logged warning so one corrupt
// blob cannot block a whole reload.
func (r *ShopRepository) LoadAllShops(ctx context.Context) ([]*domain.Shop, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.Query(ctx, `
		SELECT shop_id, owner_id, owner_name, world_name, x, y, z, is_active, created_at, last_updated, revenue_data
		FROM shops
		WHERE is_active = TRUE
	`)
	if err != nil {
		return nil, fmt.Errorf("query shops: %w", err)
	}
	defer rows.Close()

	var shops []*domain.Shop
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			log.Warn("Skipping unreadable shop row", "error", err)
			continue
		}
		shops = append(shops, shop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shops: %w", err)
	}

	for _, shop := range shops {
		if err := r.loadShopItems(ctx, shop); err != nil {
			return nil, err
		}
	}
	return shops, nil
}

func (r *ShopRepository) loadShopItems(ctx context.Context, shop *domain.Shop) error {
	log := logger.FromContext(ctx)

	rows, err := r.db.Query(ctx, `
		SELECT item_id, item_data, quantity, description, price_data, is_available
		FROM shop_items
		WHERE shop_id = $1 AND is_available = TRUE AND quantity > 0
	`, shop.ID)
	if err != nil {
		return fmt.Errorf("query shop items for %s: %w", shop.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := r.scanShopItem(rows)
		if err != nil {
			log.Warn("Skipping unreadable shop item row", "error", err, "shop_id", shop.ID)
			continue
		}
		shop.Items = append(shop.Items, item)
	}
	return rows.Err()
}

// scanShopItem rebuilds a listing from its row, decoding the payload and
// price blobs.
func (r *ShopRepository) scanShopItem(row rowScanner) (*domain.ShopItem, error) {
	var (
		itemID    uuid.UUID
		itemData  string
		quantity  int
		desc      string
		priceData string
		available bool
	)
	if err := row.Scan(&itemID, &itemData, &quantity, &desc, &priceData, &available); err != nil {
		return nil, fmt.Errorf("scan shop item: %w", err)
	}

	payload, err := r.decodePayload(itemData)
	if err != nil {
		return nil, fmt.Errorf("decode payload for %s: %w", itemID, err)
	}
	price, err := codec.DecodeStacks(priceData)
	if err != nil {
		return nil, fmt.Errorf("decode price for %s: %w", itemID, err)
	}

	return &domain.ShopItem{
		ID:          itemID,
		Payload:     payload,
		Quantity:    quantity,
		Price:       price,
		Description: desc,
		Available:   available,
	}, nil
}

// decodePayload decodes a single-payload blob through the LRU cache.
func (r *ShopRepository) decodePayload(data string) (domain.ItemPayload, error) {
	if cached, ok := r.cache.Get(data); ok {
		return domain.ClonePayload(cached.Payload), nil
	}
	stack, err := codec.DecodeStack(data)
	if err != nil {
		return domain.ItemPayload{}, err
	}
	r.cache.Add(data, stack)
	return domain.ClonePayload(stack.Payload), nil
}

// rowScanner is satisfied by pgx.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func scanShop(row rowScanner) (*domain.Shop, error) {
	var (
		shop        domain.Shop
		createdAt   int64
		lastUpdated int64
		revenueData string
	)
	if err := row.Scan(
		&shop.ID,
		&shop.OwnerID,
		&shop.OwnerName,
		&shop.Location.World,
		&shop.Location.X,
		&shop.Location.Y,
		&shop.Location.Z,
		&shop.Active,
		&createdAt,
		&lastUpdated,
		&revenueData,
	); err != nil {
		return nil, fmt.Errorf("scan shop: %w", err)
	}

	revenue, err := codec.DecodeStacks(revenueData)
	if err != nil {
		return nil, fmt.Errorf("decode revenue for %s: %w", shop.ID, err)
	}
	shop.Revenue = revenue
	shop.CreatedAt = fromMillis(createdAt)
	shop.LastUpdated = fromMillis(lastUpdated)
	return &shop, nil
}
