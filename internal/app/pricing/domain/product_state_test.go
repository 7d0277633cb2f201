package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, category, price, min, max string) *ProductPriceState {
	t.Helper()
	now := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	s, err := NewProductPriceState("p-1", "Mojito", category, MustParseMoney(price),
		PriceBounds{Min: MustParseMoney(min), Max: MustParseMoney(max)}, now)
	require.NoError(t, err)
	return s
}

func TestNewProductPriceState(t *testing.T) {
	now := time.Now().UTC()
	bounds := DefaultPriceBounds()

	t.Run("initial price clamped into bounds", func(t *testing.T) {
		s, err := NewProductPriceState("p-1", "Beer", "beer", MustParseMoney("12.00"), bounds, now)
		require.NoError(t, err)
		assert.Equal(t, "9.00", s.CurrentPrice().String())

		s, err = NewProductPriceState("p-2", "Beer", "beer", MustParseMoney("1.00"), bounds, now)
		require.NoError(t, err)
		assert.Equal(t, "4.00", s.CurrentPrice().String())
	})

	t.Run("starts with no sales", func(t *testing.T) {
		s, err := NewProductPriceState("p-1", "Beer", "beer", MustParseMoney("5.00"), bounds, now)
		require.NoError(t, err)
		assert.Equal(t, int64(0), s.SalesCount())
		assert.Nil(t, s.LastSaleAt())
		assert.NoError(t, s.CheckInvariant())
	})

	t.Run("inverted bounds rejected", func(t *testing.T) {
		_, err := NewProductPriceState("p-1", "Beer", "beer", MustParseMoney("5.00"),
			PriceBounds{Min: MustParseMoney("9.00"), Max: MustParseMoney("4.00")}, now)
		assert.ErrorIs(t, err, ErrInvalidPriceBounds)
		assert.True(t, IsInvalidInput(err))
	})

	t.Run("negative price rejected", func(t *testing.T) {
		_, err := NewProductPriceState("p-1", "Beer", "beer", MustParseMoney("-1"), bounds, now)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("empty fields rejected", func(t *testing.T) {
		_, err := NewProductPriceState("", "Beer", "beer", MustParseMoney("5"), bounds, now)
		assert.ErrorIs(t, err, ErrEmptyProductID)
		_, err = NewProductPriceState("p-1", "", "beer", MustParseMoney("5"), bounds, now)
		assert.ErrorIs(t, err, ErrEmptyName)
		_, err = NewProductPriceState("p-1", "Beer", "", MustParseMoney("5"), bounds, now)
		assert.ErrorIs(t, err, ErrEmptyCategory)
	})
}

func TestProductPriceState_ApplySale(t *testing.T) {
	catalog := DefaultDemandCatalog()
	now := time.Date(2026, 1, 1, 21, 0, 0, 0, time.UTC)

	t.Run("high demand bumps by ten percent", func(t *testing.T) {
		s := newTestState(t, "Cocktails", "6.00", "4.00", "9.00")

		change, err := s.ApplySale(1, catalog.Profile(s.CategoryKey()), now)
		require.NoError(t, err)
		require.NotNil(t, change)

		assert.Equal(t, "6.00", change.OldPrice.String())
		assert.Equal(t, "6.60", change.NewPrice.String())
		assert.Equal(t, ReasonDemandBump, change.Reason)
		assert.Equal(t, "6.60", s.CurrentPrice().String())
		assert.Equal(t, int64(1), s.SalesCount())
		require.NotNil(t, s.LastSaleAt())
		assert.Equal(t, now, *s.LastSaleAt())
	})

	t.Run("normal demand drops by six percent", func(t *testing.T) {
		s := newTestState(t, "beer", "6.00", "4.00", "9.00")

		change, err := s.ApplySale(1, catalog.Profile(s.CategoryKey()), now)
		require.NoError(t, err)
		require.NotNil(t, change)
		assert.Equal(t, "5.64", s.CurrentPrice().String())
		assert.Equal(t, ReasonDemandDrop, change.Reason)
	})

	t.Run("multi-unit line still applies one step", func(t *testing.T) {
		s := newTestState(t, "shots", "6.00", "4.00", "9.00")

		_, err := s.ApplySale(5, catalog.Profile(s.CategoryKey()), now)
		require.NoError(t, err)
		assert.Equal(t, "6.60", s.CurrentPrice().String())
		assert.Equal(t, int64(5), s.SalesCount())
	})

	t.Run("clamped to ceiling", func(t *testing.T) {
		s := newTestState(t, "cocktails", "8.50", "4.00", "9.00")

		change, err := s.ApplySale(1, catalog.Profile(s.CategoryKey()), now)
		require.NoError(t, err)
		require.NotNil(t, change)
		assert.Equal(t, "9.00", s.CurrentPrice().String())
	})

	t.Run("already at ceiling records sale without change", func(t *testing.T) {
		s := newTestState(t, "cocktails", "9.00", "4.00", "9.00")

		change, err := s.ApplySale(2, catalog.Profile(s.CategoryKey()), now)
		require.NoError(t, err)
		assert.Nil(t, change)
		assert.Equal(t, "9.00", s.CurrentPrice().String())
		assert.Equal(t, int64(2), s.SalesCount())
		assert.NotNil(t, s.LastSaleAt())
	})

	t.Run("already at floor", func(t *testing.T) {
		s := newTestState(t, "beer", "4.00", "4.00", "9.00")

		change, err := s.ApplySale(1, catalog.Profile(s.CategoryKey()), now)
		require.NoError(t, err)
		assert.Nil(t, change)
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		s := newTestState(t, "beer", "6.00", "4.00", "9.00")

		_, err := s.ApplySale(0, catalog.Profile(s.CategoryKey()), now)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, err = s.ApplySale(-3, catalog.Profile(s.CategoryKey()), now)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Equal(t, int64(0), s.SalesCount())
		assert.Nil(t, s.LastSaleAt())
	})
}

func TestProductPriceState_ApplyDecay(t *testing.T) {
	catalog := DefaultDemandCatalog()
	grace := 2 * time.Minute
	start := time.Date(2026, 1, 1, 21, 0, 0, 0, time.UTC)

	t.Run("clamps to floor", func(t *testing.T) {
		s := newTestState(t, "cocktails", "4.02", "4.00", "9.00")

		change := s.ApplyDecay(catalog.Profile(s.CategoryKey()), grace, start)
		require.NotNil(t, change)
		assert.Equal(t, "4.02", change.OldPrice.String())
		assert.Equal(t, "4.00", change.NewPrice.String())
		assert.Equal(t, ReasonAutoDecay, change.Reason)
		assert.Equal(t, "no sales recorded", change.Detail)
	})

	t.Run("at floor is a no-op", func(t *testing.T) {
		s := newTestState(t, "beer", "4.00", "4.00", "9.00")

		assert.Nil(t, s.ApplyDecay(catalog.Profile(s.CategoryKey()), grace, start))
		assert.Equal(t, "4.00", s.CurrentPrice().String())
	})

	t.Run("normal step is three cents", func(t *testing.T) {
		s := newTestState(t, "beer", "6.00", "4.00", "9.00")

		change := s.ApplyDecay(catalog.Profile(s.CategoryKey()), grace, start)
		require.NotNil(t, change)
		assert.Equal(t, "5.97", s.CurrentPrice().String())
	})

	t.Run("grace window suppresses decay and is idempotent", func(t *testing.T) {
		s := newTestState(t, "cocktails", "6.00", "4.00", "9.00")
		_, err := s.ApplySale(1, catalog.Profile(s.CategoryKey()), start)
		require.NoError(t, err)

		profile := catalog.Profile(s.CategoryKey())
		assert.Nil(t, s.ApplyDecay(profile, grace, start.Add(time.Minute)))
		assert.Nil(t, s.ApplyDecay(profile, grace, start.Add(time.Minute)))
		assert.Nil(t, s.ApplyDecay(profile, grace, start.Add(grace)))
		assert.Equal(t, "6.60", s.CurrentPrice().String())
	})

	t.Run("past grace records idle duration", func(t *testing.T) {
		s := newTestState(t, "cocktails", "6.00", "4.00", "9.00")
		_, err := s.ApplySale(1, catalog.Profile(s.CategoryKey()), start)
		require.NoError(t, err)

		change := s.ApplyDecay(catalog.Profile(s.CategoryKey()), grace, start.Add(7*time.Minute))
		require.NotNil(t, change)
		assert.Equal(t, "6.55", s.CurrentPrice().String())
		assert.Equal(t, "no sales for 7m0s", change.Detail)
	})

	t.Run("non-positive step disables decay", func(t *testing.T) {
		s := newTestState(t, "beer", "6.00", "4.00", "9.00")
		profile := catalog.Profile("beer")
		profile.DecayStep = decimal.Zero

		assert.Nil(t, s.ApplyDecay(profile, grace, start))
	})

	t.Run("repeated decay converges to floor monotonically", func(t *testing.T) {
		s := newTestState(t, "beer", "4.20", "4.00", "9.00")
		profile := catalog.Profile("beer")

		prev := s.CurrentPrice()
		for i := 0; i < 20; i++ {
			s.ApplyDecay(profile, grace, start.Add(time.Duration(i)*time.Minute))
			assert.False(t, s.CurrentPrice().GreaterThan(prev))
			require.NoError(t, s.CheckInvariant())
			prev = s.CurrentPrice()
		}
		assert.Equal(t, "4.00", s.CurrentPrice().String())
	})
}

func TestProductPriceState_InvariantHoldsUnderMixedMutations(t *testing.T) {
	catalog := DefaultDemandCatalog()
	grace := 2 * time.Minute
	now := time.Date(2026, 1, 1, 21, 0, 0, 0, time.UTC)

	for _, category := range []string{"cocktails", "beer"} {
		s := newTestState(t, category, "6.00", "4.00", "9.00")
		profile := catalog.Profile(category)
		for i := 0; i < 200; i++ {
			now = now.Add(time.Minute)
			if i%3 == 0 {
				now = now.Add(5 * time.Minute)
				s.ApplyDecay(profile, grace, now)
			} else {
				_, err := s.ApplySale(int64(i%4+1), profile, now)
				require.NoError(t, err)
			}
			require.NoError(t, s.CheckInvariant(), "category %s step %d", category, i)
		}
	}
}

func TestProductPriceState_CheckInvariant(t *testing.T) {
	now := time.Now().UTC()
	s := ReconstructProductPriceState("p-1", "Beer", "beer", MustParseMoney("9.50"),
		DefaultPriceBounds(), 0, nil, now, now)

	err := s.CheckInvariant()
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.True(t, IsFatal(err))
}

func TestProductPriceState_Clone(t *testing.T) {
	s := newTestState(t, "beer", "6.00", "4.00", "9.00")
	_, err := s.ApplySale(1, DefaultNormalProfile(), time.Now())
	require.NoError(t, err)

	c := s.Clone()
	_, err = c.ApplySale(1, DefaultNormalProfile(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(1), s.SalesCount())
	assert.Equal(t, int64(2), c.SalesCount())
	assert.Equal(t, "5.64", s.CurrentPrice().String())
	assert.Equal(t, "5.30", c.CurrentPrice().String())
}
