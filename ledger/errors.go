package ledger

import "errors"

// Every failure mode is a rejected operation that leaves the ledger
// unchanged; none are fatal. Callers match with errors.Is.
var (
	// ErrInsufficientBalance is returned by Buy when the requested
	// spend exceeds available cash.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrPriceUnavailable is returned when the price source cannot
	// supply a current price for the asset.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrPositionNotFound is returned when the referenced position id
	// does not exist (already closed, or never existed).
	ErrPositionNotFound = errors.New("position not found")

	// ErrInvalidQuantity is returned when a requested amount or
	// quantity is non-positive, or a partial sell exceeds the
	// position's remaining quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
)
