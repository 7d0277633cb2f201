package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// StoreFactory returns an empty store. Both interfaces may be the same value.
type StoreFactory func(t *testing.T) (contracts.ProductRepository, contracts.PriceHistoryRepository)

// RunRepositoryContract checks the behavior every storage backend must share.
func RunRepositoryContract(t *testing.T, newStore StoreFactory) {
	catalog := domain.DefaultDemandCatalog()

	t.Run("insert and get", func(t *testing.T) {
		ctx := context.Background()
		products, _ := newStore(t)

		state := NewTestState(t, "", "cocktails", "6.00", OpeningTime)
		require.NoError(t, products.Insert(ctx, state))

		got, err := products.GetByID(ctx, state.ID())
		require.NoError(t, err)
		assert.Equal(t, state.Name(), got.Name())
		assert.Equal(t, "cocktails", got.CategoryKey())
		assert.Equal(t, "6.00", got.CurrentPrice().String())
		assert.Equal(t, "4.00", got.MinPrice().String())
		assert.Equal(t, "9.00", got.MaxPrice().String())
		assert.Equal(t, int64(0), got.SalesCount())
		assert.Nil(t, got.LastSaleAt())

		assert.ErrorIs(t, products.Insert(ctx, state), domain.ErrProductExists)

		_, err = products.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("list ordered by creation", func(t *testing.T) {
		ctx := context.Background()
		products, _ := newStore(t)

		first := InsertTestProduct(t, products, "beer", "5.00", OpeningTime)
		second := InsertTestProduct(t, products, "wine", "7.00", OpeningTime.Add(time.Minute))
		third := InsertTestProduct(t, products, "shots", "4.50", OpeningTime.Add(2*time.Minute))

		ids, err := products.ListIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{first, second, third}, ids)

		states, err := products.List(ctx)
		require.NoError(t, err)
		require.Len(t, states, 3)
		assert.Equal(t, "wine", states[1].CategoryKey())
	})

	t.Run("mutate commits state and ledger together", func(t *testing.T) {
		ctx := context.Background()
		products, history := newStore(t)
		id := InsertTestProduct(t, products, "cocktails", "6.00", OpeningTime)

		saleAt := OpeningTime.Add(time.Hour)
		res, err := products.Mutate(ctx, id, SaleFunc(catalog, 2, saleAt))
		require.NoError(t, err)
		require.NotNil(t, res.Entry)
		assert.Equal(t, "6.60", res.State.CurrentPrice().String())

		got, err := products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "6.60", got.CurrentPrice().String())
		assert.Equal(t, int64(2), got.SalesCount())
		require.NotNil(t, got.LastSaleAt())
		assert.WithinDuration(t, saleAt, *got.LastSaleAt(), time.Microsecond)

		latest, err := history.MostRecent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, res.Entry.ID(), latest.ID())
		assert.Equal(t, "6.00", latest.OldPrice().String())
		assert.Equal(t, "6.60", latest.NewPrice().String())
		assert.Equal(t, domain.ReasonDemandBump, latest.Reason())
		assert.WithinDuration(t, saleAt, latest.ChangedAt(), time.Microsecond)
	})

	t.Run("sale at bound records no entry", func(t *testing.T) {
		ctx := context.Background()
		products, history := newStore(t)
		id := InsertTestProduct(t, products, "beer", "4.00", OpeningTime)

		res, err := products.Mutate(ctx, id, SaleFunc(catalog, 1, OpeningTime.Add(time.Minute)))
		require.NoError(t, err)
		assert.Nil(t, res.Entry)
		assert.Equal(t, int64(1), res.State.SalesCount())

		_, err = history.MostRecent(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNoPriceHistory)
	})

	t.Run("failed mutation writes nothing", func(t *testing.T) {
		ctx := context.Background()
		products, history := newStore(t)
		id := InsertTestProduct(t, products, "cocktails", "6.00", OpeningTime)

		boom := errors.New("boom")
		_, err := products.Mutate(ctx, id, func(state *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
			if _, err := SaleFunc(catalog, 1, OpeningTime)(state); err != nil {
				return nil, err
			}
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "6.00", got.CurrentPrice().String())
		assert.Equal(t, int64(0), got.SalesCount())

		entries, err := history.AllForProduct(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("mutate unknown product", func(t *testing.T) {
		products, _ := newStore(t)
		_, err := products.Mutate(context.Background(), "missing", SaleFunc(catalog, 1, OpeningTime))
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("concurrent sales serialize", func(t *testing.T) {
		ctx := context.Background()
		products, history := newStore(t)
		id := InsertTestProduct(t, products, "beer", "9.00", OpeningTime)

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				at := OpeningTime.Add(time.Duration(i+1) * time.Second)
				if _, err := products.Mutate(ctx, id, SaleFunc(catalog, 1, at)); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(workers), got.SalesCount())

		entries, err := history.AllForProduct(ctx, id)
		require.NoError(t, err)
		require.Len(t, entries, workers)
		assert.Equal(t, "9.00", entries[0].OldPrice().String())
		assert.True(t, entries[len(entries)-1].NewPrice().Equals(got.CurrentPrice()))
		RequireChained(t, entries)
	})

	t.Run("last n oldest first", func(t *testing.T) {
		ctx := context.Background()
		products, history := newStore(t)
		id := InsertTestProduct(t, products, "cocktails", "4.00", OpeningTime)

		for i := 1; i <= 5; i++ {
			_, err := products.Mutate(ctx, id, SaleFunc(catalog, 1, OpeningTime.Add(time.Duration(i)*time.Minute)))
			require.NoError(t, err)
		}

		all, err := history.AllForProduct(ctx, id)
		require.NoError(t, err)
		require.Len(t, all, 5)
		RequireChained(t, all)

		last, err := history.LastN(ctx, id, 3)
		require.NoError(t, err)
		require.Len(t, last, 3)
		assert.Equal(t, all[2].ID(), last[0].ID())
		assert.Equal(t, all[4].ID(), last[2].ID())

		more, err := history.LastN(ctx, id, 50)
		require.NoError(t, err)
		assert.Len(t, more, 5)
	})

	t.Run("delete cascades ledger", func(t *testing.T) {
		ctx := context.Background()
		products, history := newStore(t)
		id := InsertTestProduct(t, products, "cocktails", "6.00", OpeningTime)
		_, err := products.Mutate(ctx, id, SaleFunc(catalog, 1, OpeningTime.Add(time.Minute)))
		require.NoError(t, err)

		require.NoError(t, products.Delete(ctx, id))

		_, err = products.GetByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		entries, err := history.AllForProduct(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, entries)

		assert.ErrorIs(t, products.Delete(ctx, id), domain.ErrProductNotFound)
	})
}
