package domain

import "errors"

// Error message string constants - single source of truth for error messages.
// Use these in assert.Contains() checks when testing error messages.
const (
	// Registry errors
	ErrMsgShopNotFound     = "shop not found"
	ErrMsgItemNotFound     = "shop item not found"
	ErrMsgLocationOccupied = "location already occupied"
	ErrMsgNotShopOwner     = "actor does not own this shop"
	ErrMsgShopRemoved      = "shop has been removed"

	// Purchase errors
	ErrMsgItemUnavailable   = "item is not available"
	ErrMsgInsufficientStock = "insufficient stock"
	ErrMsgInsufficientFunds = "buyer lacks required payment items"

	// Revenue errors
	ErrMsgNoRevenue = "no revenue to collect"

	// Input errors
	ErrMsgInvalidInput = "invalid input"

	// Infrastructure errors
	ErrMsgPersistence = "persistence failure"
)

// Common domain errors. Wrap with fmt.Errorf("%w: ...", domain.ErrXxx) for
// additional context; callers branch with errors.Is.
var (
	ErrShopNotFound     = errors.New(ErrMsgShopNotFound)
	ErrItemNotFound     = errors.New(ErrMsgItemNotFound)
	ErrLocationOccupied = errors.New(ErrMsgLocationOccupied)
	ErrNotShopOwner     = errors.New(ErrMsgNotShopOwner)
	ErrShopRemoved      = errors.New(ErrMsgShopRemoved)

	ErrItemUnavailable   = errors.New(ErrMsgItemUnavailable)
	ErrInsufficientStock = errors.New(ErrMsgInsufficientStock)
	ErrInsufficientFunds = errors.New(ErrMsgInsufficientFunds)

	ErrNoRevenue = errors.New(ErrMsgNoRevenue)

	ErrInvalidInput = errors.New(ErrMsgInvalidInput)

	ErrPersistence = errors.New(ErrMsgPersistence)
)
