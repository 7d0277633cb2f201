package decay_prices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo/memory"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

var start = time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)

type fixture struct {
	uc    *Interactor
	store *memory.Store
	clock *clock.MockClock
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewMockClock(start)
	return &fixture{
		uc:    NewInteractor(store, domain.DefaultDemandCatalog(), clk, cfg, nil),
		store: store,
		clock: clk,
	}
}

func (f *fixture) add(t *testing.T, id, category, price string) {
	t.Helper()
	state, err := domain.NewProductPriceState(id, id, category, domain.MustParseMoney(price), domain.DefaultPriceBounds(), start)
	require.NoError(t, err)
	require.NoError(t, f.store.Insert(context.Background(), state))
}

func (f *fixture) sell(t *testing.T, id string) {
	t.Helper()
	_, err := f.store.Mutate(context.Background(), id, func(s *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
		_, err := s.ApplySale(1, domain.DefaultHighDemandProfile(), f.clock.Now())
		return nil, err
	})
	require.NoError(t, err)
}

func TestInteractor_DecayProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("never sold decays immediately", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		f.add(t, "p-1", "cocktails", "6.00")

		res, err := f.uc.DecayProduct(ctx, "p-1")
		require.NoError(t, err)
		require.NotNil(t, res.Entry)
		assert.Equal(t, "5.95", res.State.CurrentPrice().String())
		assert.Equal(t, domain.ReasonAutoDecay, res.Entry.Reason())
		assert.Equal(t, "no sales recorded", res.Entry.Detail())
	})

	t.Run("within grace is idempotent", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		f.add(t, "p-1", "cocktails", "6.00")
		f.sell(t, "p-1")
		f.clock.Advance(time.Minute)

		for n := 0; n < 3; n++ {
			res, err := f.uc.DecayProduct(ctx, "p-1")
			require.NoError(t, err)
			assert.Nil(t, res.Entry)
			assert.Equal(t, "6.00", res.State.CurrentPrice().String())
		}

		all, err := f.store.AllForProduct(ctx, "p-1")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("past grace records idle time", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		f.add(t, "p-1", "beer", "6.00")
		f.sell(t, "p-1")
		f.clock.Advance(7 * time.Minute)

		res, err := f.uc.DecayProduct(ctx, "p-1")
		require.NoError(t, err)
		require.NotNil(t, res.Entry)
		assert.Equal(t, "5.97", res.State.CurrentPrice().String())
		assert.Equal(t, "no sales for 7m0s", res.Entry.Detail())
		assert.Equal(t, start.Add(7*time.Minute), res.Entry.ChangedAt())
	})

	t.Run("clamps to floor then stops", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		f.add(t, "p-1", "cocktails", "4.02")

		res, err := f.uc.DecayProduct(ctx, "p-1")
		require.NoError(t, err)
		require.NotNil(t, res.Entry)
		assert.Equal(t, "4.00", res.State.CurrentPrice().String())

		res, err = f.uc.DecayProduct(ctx, "p-1")
		require.NoError(t, err)
		assert.Nil(t, res.Entry)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		_, err := f.uc.DecayProduct(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}

func TestInteractor_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("counts changed and skipped", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		f.add(t, "idle", "beer", "6.00")
		f.add(t, "floor", "beer", "4.00")
		f.add(t, "busy", "cocktails", "6.00")
		f.sell(t, "busy")

		report, err := f.uc.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, SweepReport{Scanned: 3, Changed: 1, Skipped: 2}, report)
	})

	t.Run("a locked product times out without blocking the rest", func(t *testing.T) {
		f := newFixture(t, Config{Grace: 2 * time.Minute, PerProductTimeout: 30 * time.Millisecond})
		f.add(t, "a", "beer", "6.00")
		f.add(t, "stuck", "beer", "6.00")
		f.add(t, "c", "beer", "6.00")

		held := make(chan struct{})
		release := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = f.store.Mutate(context.Background(), "stuck", func(*domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
				close(held)
				<-release
				return nil, nil
			})
		}()
		<-held

		report, err := f.uc.Sweep(ctx)
		close(release)
		<-done

		require.NoError(t, err)
		assert.Equal(t, SweepReport{Scanned: 3, Changed: 2, Failed: 1}, report)

		stuck, err := f.store.GetByID(ctx, "stuck")
		require.NoError(t, err)
		assert.Equal(t, "6.00", stuck.CurrentPrice().String())
	})

	t.Run("cancelled context stops the sweep", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		f.add(t, "a", "beer", "6.00")

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.uc.Sweep(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("repeated sweeps converge to floor", func(t *testing.T) {
		f := newFixture(t, DefaultConfig())
		f.add(t, "p-1", "cocktails", "4.30")

		for n := 0; n < 10; n++ {
			f.clock.Advance(time.Minute)
			_, err := f.uc.Sweep(ctx)
			require.NoError(t, err)
		}

		state, err := f.store.GetByID(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "4.00", state.CurrentPrice().String())

		history, err := f.store.AllForProduct(ctx, "p-1")
		require.NoError(t, err)
		assert.Len(t, history, 6)
	})
}

func TestInteractor_Sweep_StalledHeadDoesNotStarveTail(t *testing.T) {
	f := newFixture(t, Config{Grace: 2 * time.Minute, PerProductTimeout: 50 * time.Millisecond})
	stuck := []string{"a-stuck-0", "a-stuck-1", "a-stuck-2"}
	for _, id := range stuck {
		f.add(t, id, "beer", "6.00")
	}
	f.add(t, "z-late", "beer", "6.00")

	release := make(chan struct{})
	var done []chan struct{}
	for _, id := range stuck {
		held := make(chan struct{})
		finished := make(chan struct{})
		done = append(done, finished)
		go func(id string) {
			defer close(finished)
			_, _ = f.store.Mutate(context.Background(), id, func(*domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
				close(held)
				<-release
				return nil, nil
			})
		}(id)
		<-held
	}
	defer func() {
		close(release)
		for _, d := range done {
			<-d
		}
	}()

	// three stalled products at 50ms each outlast the 120ms tick
	tick, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	report, err := f.uc.Sweep(tick)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Scanned: 4, Changed: 1, Failed: 3}, report)

	late, err := f.store.GetByID(context.Background(), "z-late")
	require.NoError(t, err)
	assert.Equal(t, "5.97", late.CurrentPrice().String())
}
