package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

var t0 = time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store, id, category, price string) {
	t.Helper()
	state, err := domain.NewProductPriceState(id, "Product "+id, category, domain.MustParseMoney(price), domain.DefaultPriceBounds(), t0)
	require.NoError(t, err)
	require.NoError(t, s.Insert(context.Background(), state))
}

func saleFn(at time.Time) func(*domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
	return func(state *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
		change, err := state.ApplySale(1, domain.DefaultHighDemandProfile(), at)
		if err != nil || change == nil {
			return nil, err
		}
		return domain.NewPriceHistoryEntry(fmt.Sprintf("h-%d", at.UnixNano()), state.ID(), change, at), nil
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "p-1", "cocktails", "6.00")

	got, err := s.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "6.00", got.CurrentPrice().String())

	state, _ := domain.NewProductPriceState("p-1", "dup", "beer", domain.MustParseMoney("5"), domain.DefaultPriceBounds(), t0)
	assert.ErrorIs(t, s.Insert(ctx, state), domain.ErrProductExists)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestStore_MutateAppendsHistory(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "p-1", "cocktails", "6.00")

	res, err := s.Mutate(ctx, "p-1", saleFn(t0.Add(time.Minute)))
	require.NoError(t, err)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "6.60", res.State.CurrentPrice().String())

	latest, err := s.MostRecent(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "6.00", latest.OldPrice().String())
	assert.Equal(t, "6.60", latest.NewPrice().String())

	all, err := s.AllForProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_MutateErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "p-1", "cocktails", "6.00")

	boom := errors.New("boom")
	_, err := s.Mutate(ctx, "p-1", func(state *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
		_, _ = state.ApplySale(3, domain.DefaultHighDemandProfile(), t0)
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.SalesCount())
	assert.Equal(t, "6.00", got.CurrentPrice().String())

	_, err = s.MostRecent(ctx, "p-1")
	assert.ErrorIs(t, err, domain.ErrNoPriceHistory)
}

func TestStore_MutateUnknownProduct(t *testing.T) {
	s := NewStore()
	_, err := s.Mutate(context.Background(), "missing", saleFn(t0))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestStore_MutateHonoursContext(t *testing.T) {
	s := NewStore()
	seed(t, s, "p-1", "cocktails", "6.00")

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = s.Mutate(context.Background(), "p-1", func(*domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Mutate(ctx, "p-1", saleFn(t0))
	assert.ErrorIs(t, err, domain.ErrTransientPersistence)
	assert.True(t, domain.IsTransient(err))

	// another product is not blocked
	seed(t, s, "p-2", "beer", "6.00")
	_, err = s.Mutate(context.Background(), "p-2", saleFn(t0))
	assert.NoError(t, err)

	close(release)
}

func TestStore_ConcurrentMutationsNeverLoseUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "p-1", "cocktails", "4.00")

	const workers = 40
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Mutate(ctx, "p-1", func(state *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
				_, err := state.ApplySale(int64(i+1), domain.DefaultNormalProfile(), t0)
				return nil, err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*(workers+1)/2), got.SalesCount())
}

func TestStore_LastN(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "p-1", "cocktails", "4.00")

	for i := 1; i <= 5; i++ {
		_, err := s.Mutate(ctx, "p-1", saleFn(t0.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	last, err := s.LastN(ctx, "p-1", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.True(t, last[0].ChangedAt().Before(last[1].ChangedAt()))

	latest, err := s.MostRecent(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, last[1].ID(), latest.ID())

	none, err := s.LastN(ctx, "p-1", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_DeleteCascadesHistory(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "p-1", "cocktails", "6.00")
	_, err := s.Mutate(ctx, "p-1", saleFn(t0))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "p-1"))

	_, err = s.GetByID(ctx, "p-1")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	all, err := s.AllForProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, s.Delete(ctx, "p-1"), domain.ErrProductNotFound)
}

func TestStore_ListOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for i, id := range []string{"c", "a", "b"} {
		state, err := domain.NewProductPriceState(id, id, "beer", domain.MustParseMoney("5"), domain.DefaultPriceBounds(), t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.NoError(t, s.Insert(ctx, state))
	}

	ids, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}
