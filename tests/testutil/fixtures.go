package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// NewTestState builds a product with the default 4.00 to 9.00 bounds.
func NewTestState(t *testing.T, id, category, price string, createdAt time.Time) *domain.ProductPriceState {
	t.Helper()
	if id == "" {
		id = uuid.New().String()
	}
	state, err := domain.NewProductPriceState(id, "Test "+category, category,
		domain.MustParseMoney(price), domain.DefaultPriceBounds(), createdAt)
	require.NoError(t, err, "failed to build test product")
	return state
}

// InsertTestProduct stores a new product and returns its id.
func InsertTestProduct(t *testing.T, repo contracts.ProductRepository, category, price string, createdAt time.Time) string {
	t.Helper()
	state := NewTestState(t, "", category, price, createdAt)
	require.NoError(t, repo.Insert(context.Background(), state), "failed to insert test product")
	return state.ID()
}

// SaleFunc records one sale of quantity units at the given time.
func SaleFunc(catalog *domain.DemandCatalog, quantity int64, at time.Time) contracts.MutateFunc {
	return func(state *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
		change, err := state.ApplySale(quantity, catalog.Profile(state.CategoryKey()), at)
		if err != nil || change == nil {
			return nil, err
		}
		return domain.NewPriceHistoryEntry(uuid.New().String(), state.ID(), change, at), nil
	}
}

// DecayFunc runs one decay step at the given time.
func DecayFunc(catalog *domain.DemandCatalog, grace time.Duration, at time.Time) contracts.MutateFunc {
	return func(state *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
		change := state.ApplyDecay(catalog.Profile(state.CategoryKey()), grace, at)
		if change == nil {
			return nil, nil
		}
		return domain.NewPriceHistoryEntry(uuid.New().String(), state.ID(), change, at), nil
	}
}

// RequireChained checks that every entry starts where the previous one ended.
func RequireChained(t *testing.T, entries []*domain.PriceHistoryEntry) {
	t.Helper()
	for i := 1; i < len(entries); i++ {
		require.True(t, entries[i].OldPrice().Equals(entries[i-1].NewPrice()),
			"entry %d starts at %s but entry %d ended at %s",
			i, entries[i].OldPrice(), i-1, entries[i-1].NewPrice())
	}
}
