package contracts

import (
	"context"
	"fmt"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// MutateFunc changes a product inside its atomic unit and optionally returns the
// ledger entry describing the change. Returning an error aborts the unit and
// nothing is written. Implementations may call it more than once when the
// underlying store retries a transaction, so it must only touch state.
type MutateFunc func(state *domain.ProductPriceState) (*domain.PriceHistoryEntry, error)

// MutationResult is the committed outcome of a Mutate call.
type MutationResult struct {
	State *domain.ProductPriceState
	Entry *domain.PriceHistoryEntry // nil when the price did not change
}

// ProductRepository defines the persistence contract for product pricing state.
// Mutate is the only write path for an existing product: the read, fn, the bounds
// check, the save and the conditional ledger append commit together, scoped to
// one product id. Different ids never block each other.
type ProductRepository interface {
	// Insert stores a new product. Returns ErrProductExists for duplicate ids.
	Insert(ctx context.Context, state *domain.ProductPriceState) error

	// GetByID returns a snapshot of the product or ErrProductNotFound.
	GetByID(ctx context.Context, productID string) (*domain.ProductPriceState, error)

	// List returns snapshots of all products ordered by creation time.
	List(ctx context.Context) ([]*domain.ProductPriceState, error)

	// ListIDs returns all product ids ordered by creation time.
	ListIDs(ctx context.Context) ([]string, error)

	// Mutate runs fn against the product as one atomic unit.
	Mutate(ctx context.Context, productID string, fn MutateFunc) (*MutationResult, error)

	// Delete removes the product together with its price history.
	Delete(ctx context.Context, productID string) error
}

// ApplyMutation runs fn and validates its outcome. Stores call it inside their
// atomic unit, after loading state and before writing anything.
func ApplyMutation(state *domain.ProductPriceState, fn MutateFunc) (*domain.PriceHistoryEntry, error) {
	entry, err := fn(state)
	if err != nil {
		return nil, err
	}

	if err := state.CheckInvariant(); err != nil {
		return nil, err
	}

	if entry != nil {
		if entry.ProductID() != state.ID() {
			return nil, fmt.Errorf("history entry for %q produced while mutating %q", entry.ProductID(), state.ID())
		}
		if !entry.Reason().Valid() {
			return nil, fmt.Errorf("history entry with unknown reason %q", entry.Reason())
		}
		if !entry.NewPrice().Equals(state.CurrentPrice()) {
			return nil, fmt.Errorf("%w: entry new price %s differs from stored price %s",
				domain.ErrInvariantViolation, entry.NewPrice(), state.CurrentPrice())
		}
	}

	return entry, nil
}
