package domain

import (
	"context"
	"errors"
)

// Domain errors as sentinel values
var (
	// Not found
	ErrProductNotFound = errors.New("product not found")
	ErrNoPriceHistory  = errors.New("product has no price history")

	// Invalid input
	ErrInvalidQuantity    = errors.New("sale quantity must be positive")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrMalformedPrice     = errors.New("malformed price")
	ErrInvalidPriceBounds = errors.New("min price must not exceed max price")
	ErrEmptyProductID     = errors.New("product id cannot be empty")
	ErrEmptyName          = errors.New("product name cannot be empty")
	ErrEmptyCategory      = errors.New("product category cannot be empty")
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrMalformedRequest   = errors.New("malformed request body")
	ErrInvalidOrderRange  = errors.New("order range start must not be after its end")
	ErrProductExists      = errors.New("product already exists")

	// Persistence
	ErrTransientPersistence = errors.New("transient persistence failure")

	// Fatal: a stored or computed price escaped its bounds
	ErrInvariantViolation = errors.New("price bounds invariant violated")
)

var invalidInputErrors = []error{
	ErrInvalidQuantity,
	ErrInvalidPrice,
	ErrMalformedPrice,
	ErrInvalidPriceBounds,
	ErrEmptyProductID,
	ErrEmptyName,
	ErrEmptyCategory,
	ErrEmptyOrder,
	ErrInvalidOrderRange,
	ErrMalformedRequest,
	ErrProductExists,
}

// IsNotFound reports whether err means the product (or its history) does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrNoPriceHistory)
}

// IsInvalidInput reports whether err was caused by a bad request.
func IsInvalidInput(err error) bool {
	for _, target := range invalidInputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsTransient reports whether retrying the operation later may succeed.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientPersistence) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsFatal reports whether err signals a broken invariant that must not be retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
