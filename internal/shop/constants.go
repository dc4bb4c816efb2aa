package shop

// MaxPurchaseQuantity caps a single purchase to keep request handling
// bounded. Larger orders are split by the caller.
const MaxPurchaseQuantity = 10000

// Removal modes reported in metrics and events.
const (
	RemovalModeSettled   = "settled"
	RemovalModeDiscarded = "discarded"
)

// Purchase failure reasons reported in metrics.
const (
	FailReasonInvalidInput = "invalid_input"
	FailReasonNotFound     = "not_found"
	FailReasonUnavailable  = "unavailable"
	FailReasonStock        = "insufficient_stock"
	FailReasonFunds        = "insufficient_funds"
	FailReasonPersistence  = "persistence"
)
