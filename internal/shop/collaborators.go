package shop

import (
	"context"

	"github.com/google/uuid"

	"github.com/nouridin/supershop/internal/domain"
)

// InventoryOracle is the external capability that holds and mutates an
// actor's actual item holdings. The registry never inspects holdings
// directly; it only asks the oracle.
type InventoryOracle interface {
	// HasAtLeast reports whether the actor holds at least count items
	// similar to the payload.
	HasAtLeast(ctx context.Context, actorID uuid.UUID, payload domain.ItemPayload, count int) (bool, error)

	// Remove takes count similar items from the actor. All-or-nothing:
	// if the actor holds fewer than count, nothing is removed and an
	// error is returned.
	Remove(ctx context.Context, actorID uuid.UUID, payload domain.ItemPayload, count int) error

	// Grant gives count items of the payload to the actor. The returned
	// leftover is the portion that did not fit and must be handled by
	// the caller.
	Grant(ctx context.Context, actorID uuid.UUID, payload domain.ItemPayload, count int) (leftover int, err error)
}

// WorldOracle reports which world contexts are currently available. Shops
// in unavailable worlds are orphaned: loaded rows are skipped until the
// world returns.
type WorldOracle interface {
	WorldAvailable(name string) bool
}

// Authorizer decides whether an actor may perform administrative actions,
// such as force-removing another owner's shop.
type Authorizer interface {
	IsAdmin(actorID uuid.UUID) bool
}

// DenyAllAuthorizer treats nobody as an administrator.
type DenyAllAuthorizer struct{}

// IsAdmin implements Authorizer.
func (DenyAllAuthorizer) IsAdmin(uuid.UUID) bool { return false }
