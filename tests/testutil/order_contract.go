package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// OrderStoreFactory returns an empty store. The product repository is used to
// check that orders survive product deletion.
type OrderStoreFactory func(t *testing.T) (contracts.OrderRepository, contracts.ProductRepository)

// NewTestOrder builds a recorded order from lines.
func NewTestOrder(t *testing.T, id string, placedAt time.Time, lines ...domain.OrderLine) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, lines, placedAt)
	require.NoError(t, err)
	return order
}

// RunOrderContract checks the order storage behavior every backend must share.
func RunOrderContract(t *testing.T, newStore OrderStoreFactory) {
	line := func(productID string, qty int64, price string) domain.OrderLine {
		return domain.OrderLine{ProductID: productID, Quantity: qty, UnitPrice: domain.MustParseMoney(price)}
	}

	t.Run("save and list keeps lines in till order", func(t *testing.T) {
		ctx := context.Background()
		orders, _ := newStore(t)

		order := NewTestOrder(t, "ord-1", OpeningTime,
			line("mojito", 2, "6.60"),
			line("lager", 1, "5.64"),
		)
		require.NoError(t, orders.SaveOrder(ctx, order))

		got, err := orders.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ord-1", got[0].ID())
		assert.Equal(t, "18.84", got[0].Total().String())
		assert.True(t, OpeningTime.Equal(got[0].PlacedAt()))

		lines := got[0].Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, "mojito", lines[0].ProductID)
		assert.Equal(t, int64(2), lines[0].Quantity)
		assert.Equal(t, "6.60", lines[0].UnitPrice.String())
		assert.Equal(t, "lager", lines[1].ProductID)
	})

	t.Run("list ordered by placement time", func(t *testing.T) {
		ctx := context.Background()
		orders, _ := newStore(t)

		late := NewTestOrder(t, "ord-a", OpeningTime.Add(time.Minute), line("p", 1, "5.00"))
		early := NewTestOrder(t, "ord-b", OpeningTime, line("p", 1, "4.00"))
		require.NoError(t, orders.SaveOrder(ctx, late))
		require.NoError(t, orders.SaveOrder(ctx, early))

		got, err := orders.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "ord-b", got[0].ID())
		assert.Equal(t, "ord-a", got[1].ID())
		assert.Equal(t, "9.00", domain.Revenue(got).String())
	})

	t.Run("empty store lists nothing", func(t *testing.T) {
		orders, _ := newStore(t)
		got, err := orders.ListOrders(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("orders outlive deleted products", func(t *testing.T) {
		ctx := context.Background()
		orders, products := newStore(t)

		state := NewTestState(t, "", "beer", "6.00", OpeningTime)
		require.NoError(t, products.Insert(ctx, state))
		require.NoError(t, orders.SaveOrder(ctx, NewTestOrder(t, "ord-1", OpeningTime, line(state.ID(), 3, "6.00"))))
		require.NoError(t, products.Delete(ctx, state.ID()))

		got, err := orders.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "18.00", got[0].Total().String())
		assert.Equal(t, state.ID(), got[0].Lines()[0].ProductID)
	})
}
