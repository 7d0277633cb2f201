package contracts

import (
	"context"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// PriceHistoryRepository is the read side of the append-only price ledger.
// Appends only happen through ProductRepository.Mutate.
type PriceHistoryRepository interface {
	// MostRecent returns the latest entry or ErrNoPriceHistory.
	MostRecent(ctx context.Context, productID string) (*domain.PriceHistoryEntry, error)

	// AllForProduct returns every entry for the product, oldest first.
	AllForProduct(ctx context.Context, productID string) ([]*domain.PriceHistoryEntry, error)

	// LastN returns the newest n entries, oldest first.
	LastN(ctx context.Context, productID string, n int) ([]*domain.PriceHistoryEntry, error)
}
