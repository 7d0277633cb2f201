//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo/postgres"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/decay_prices"
	"github.com/light-bringer/dynprice-service/tests/testutil"
)

func TestPostgresStore_Contract(t *testing.T) {
	testutil.RunRepositoryContract(t, func(t *testing.T) (contracts.ProductRepository, contracts.PriceHistoryRepository) {
		store := postgres.NewStore(testutil.SetupPostgresTest(t))
		return store, store
	})
}

func TestPostgresStore_OrderContract(t *testing.T) {
	testutil.RunOrderContract(t, func(t *testing.T) (contracts.OrderRepository, contracts.ProductRepository) {
		store := postgres.NewStore(testutil.SetupPostgresTest(t))
		return store, store
	})
}

func TestPostgresStore_MutateTimesOutWhileRowLocked(t *testing.T) {
	pool := testutil.SetupPostgresTest(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()
	id := testutil.InsertTestProduct(t, store, "beer", "6.00", testutil.OpeningTime)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, "SELECT product_id FROM products WHERE product_id = $1 FOR UPDATE", id)
	require.NoError(t, err)

	shortCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = store.Mutate(shortCtx, id, testutil.SaleFunc(domain.DefaultDemandCatalog(), 1, testutil.OpeningTime))
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err), "got %v", err)
}

func TestPostgresStore_DecaySweep(t *testing.T) {
	store := postgres.NewStore(testutil.SetupPostgresTest(t))
	ctx := context.Background()
	catalog := domain.DefaultDemandCatalog()

	idle := testutil.InsertTestProduct(t, store, "beer", "6.00", testutil.OpeningTime)
	floor := testutil.InsertTestProduct(t, store, "wine", "4.00", testutil.OpeningTime.Add(time.Second))

	clk := testutil.NewFixedClock(testutil.OpeningTime.Add(10 * time.Minute))
	uc := decay_prices.NewInteractor(store, catalog, clk, decay_prices.DefaultConfig(), nil)

	report, err := uc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, decay_prices.SweepReport{Scanned: 2, Changed: 1}, report)

	got, err := store.GetByID(ctx, idle)
	require.NoError(t, err)
	assert.Equal(t, "5.97", got.CurrentPrice().String())

	entries, err := store.AllForProduct(ctx, floor)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
