package delete_product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo/memory"
)

func TestInteractor_Execute(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)
	store := memory.NewStore()

	state, err := domain.NewProductPriceState("p-1", "Mojito", "cocktails", domain.MustParseMoney("6.00"), domain.DefaultPriceBounds(), now)
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, state))

	_, err = store.Mutate(ctx, "p-1", func(s *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
		change, err := s.ApplySale(1, domain.DefaultHighDemandProfile(), now)
		if err != nil {
			return nil, err
		}
		return domain.NewPriceHistoryEntry("h-1", s.ID(), change, now), nil
	})
	require.NoError(t, err)

	uc := NewInteractor(store, nil)
	require.NoError(t, uc.Execute(ctx, &Request{ProductID: "p-1"}))

	_, err = store.GetByID(ctx, "p-1")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	history, err := store.AllForProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	err = uc.Execute(ctx, &Request{ProductID: "p-1"})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.ErrorIs(t, uc.Execute(ctx, &Request{}), domain.ErrEmptyProductID)
}
