package shop

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nouridin/supershop/internal/domain"
)

// SearchQuery filters listings across the registry. A zero field leaves
// that filter off; the zero query returns every available listing.
type SearchQuery struct {
	// Term matches item display names, kinds and descriptions,
	// case-insensitively.
	Term string
	// OwnerName matches seller names, case-insensitively.
	OwnerName string
	// Origin, when set, attaches distances to results and sorts them
	// closest first.
	Origin *domain.Location
	// MaxDistance drops results farther than this from Origin. Ignored
	// when zero or when Origin is nil.
	MaxDistance float64
}

// SearchResult is one matching listing together with the shop carrying it.
type SearchResult struct {
	ShopID    uuid.UUID        `json:"shop_id"`
	OwnerName string           `json:"owner_name"`
	Location  domain.Location  `json:"location"`
	Item      *domain.ShopItem `json:"item"`
	Distance  float64          `json:"distance,omitempty"`
}

// FormattedDistance renders the distance for display. Only meaningful for
// results produced by a query with an origin.
func (r SearchResult) FormattedDistance() string {
	switch {
	case r.Distance == domain.DistanceOtherWorld:
		return "different world"
	case r.Distance < 1000:
		return fmt.Sprintf("%.1f blocks", r.Distance)
	default:
		return fmt.Sprintf("%.1f km", r.Distance/1000)
	}
}

// SearchItems returns every available listing in an active shop that
// matches the query. Inactive shops and delisted or sold-out items never
// appear. With an origin the results come back closest first, cross-world
// matches last.
func (s *service) SearchItems(query SearchQuery) []SearchResult {
	term := strings.ToLower(strings.TrimSpace(query.Term))
	owner := strings.ToLower(strings.TrimSpace(query.OwnerName))

	results := []SearchResult{}
	for _, st := range s.states() {
		shop := st.snapshot()
		if !shop.Active {
			continue
		}
		if owner != "" && !strings.Contains(strings.ToLower(shop.OwnerName), owner) {
			continue
		}

		var distance float64
		if query.Origin != nil {
			distance = shop.Location.DistanceTo(*query.Origin)
			if query.MaxDistance > 0 && distance > query.MaxDistance {
				continue
			}
		}

		for _, item := range shop.Items {
			if !item.IsAvailable() || !matchesTerm(item, term) {
				continue
			}
			results = append(results, SearchResult{
				ShopID:    shop.ID,
				OwnerName: shop.OwnerName,
				Location:  shop.Location,
				Item:      item,
				Distance:  distance,
			})
		}
	}

	if query.Origin != nil {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Distance < results[j].Distance
		})
	}
	return results
}

// matchesTerm reports whether the listing matches the lowercased term by
// display name, kind or description. An empty term matches everything.
func matchesTerm(item *domain.ShopItem, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.DisplayName()), term) {
		return true
	}
	kind := strings.ReplaceAll(strings.ToLower(item.Payload.Kind), "_", " ")
	if strings.Contains(kind, term) {
		return true
	}
	return item.Description != "" && strings.Contains(strings.ToLower(item.Description), term)
}
