package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/get_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_orders"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_price_history"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_products"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/create_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/delete_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/place_order"
	"github.com/light-bringer/dynprice-service/tests/testutil"
)

func createProduct(t *testing.T, s *suite, name, category, price string) string {
	t.Helper()
	id, err := s.CreateProduct.Execute(context.Background(), &create_product.Request{
		Name:         name,
		CategoryKey:  category,
		InitialPrice: domain.MustParseMoney(price),
	})
	require.NoError(t, err)
	return id
}

func TestEveningFlow_SalesThenDecay(t *testing.T) {
	ctx := context.Background()
	s := setupTest(t)

	mojito := createProduct(t, s, "Mojito", "cocktails", "6.00")
	lager := createProduct(t, s, "Lager", "beer", "6.00")

	receipt, err := s.PlaceOrder.Execute(ctx, &place_order.Request{Lines: []place_order.Line{
		{ProductID: mojito, Quantity: 1},
		{ProductID: lager, Quantity: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, "12.24", receipt.Total.String())

	recorded, err := s.ListOrders.Execute(ctx, &list_orders.Request{})
	require.NoError(t, err)
	require.Len(t, recorded.Orders, 1)
	assert.Equal(t, receipt.OrderID, recorded.Orders[0].ID())
	assert.Equal(t, "12.24", recorded.Revenue.String())

	// inside the grace window nothing moves
	s.Clock.Set(testutil.OpeningTime.Add(time.Minute))
	assert.Equal(t, 2, s.sweep(t).Scanned)

	view, err := s.GetProduct.Execute(ctx, &get_product.Request{ProductID: mojito})
	require.NoError(t, err)
	assert.Equal(t, "6.60", view.Price.String())

	// long after the last sale both drift down by their step
	s.Clock.Set(testutil.OpeningTime.Add(10 * time.Minute))
	report := s.sweep(t)
	assert.Equal(t, 2, report.Changed)

	view, err = s.GetProduct.Execute(ctx, &get_product.Request{ProductID: mojito})
	require.NoError(t, err)
	assert.Equal(t, "6.55", view.Price.String())
	require.NotNil(t, view.PriceUp)
	assert.False(t, *view.PriceUp)
	assert.Equal(t, "-0.05", view.PriceChange.String())

	view, err = s.GetProduct.Execute(ctx, &get_product.Request{ProductID: lager})
	require.NoError(t, err)
	assert.Equal(t, "5.61", view.Price.String())

	rows, err := s.ListPriceHistory.Execute(ctx, &list_price_history.Request{ProductID: mojito})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.ReasonDemandBump, rows[0].Reason)
	assert.Equal(t, domain.ReasonAutoDecay, rows[1].Reason)
	assert.Equal(t, "no sales for 10m0s", rows[1].Detail)
	assert.True(t, rows[1].OldPrice.Equals(rows[0].NewPrice))
}

func TestEveningFlow_DecayStopsAtFloor(t *testing.T) {
	ctx := context.Background()
	s := setupTest(t)

	id := createProduct(t, s, "House Red", "wine", "4.07")

	prices := []string{"4.04", "4.01", "4.00", "4.00"}
	for i, want := range prices {
		s.Clock.Set(testutil.OpeningTime.Add(time.Duration(i+1) * time.Minute))
		s.sweep(t)

		view, err := s.GetProduct.Execute(ctx, &get_product.Request{ProductID: id})
		require.NoError(t, err)
		assert.Equal(t, want, view.Price.String(), "sweep %d", i+1)
	}

	rows, err := s.ListPriceHistory.Execute(ctx, &list_price_history.Request{ProductID: id})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestCatalog_ListFilterAndDelete(t *testing.T) {
	ctx := context.Background()
	s := setupTest(t)

	createProduct(t, s, "Mojito", "cocktails", "6.00")
	createProduct(t, s, "Tequila", "shots", "5.00")
	lager := createProduct(t, s, "Lager", "beer", "5.50")

	high, err := s.ListProducts.Execute(ctx, &list_products.Request{DemandClass: string(domain.HighDemand)})
	require.NoError(t, err)
	assert.Len(t, high, 2)

	require.NoError(t, s.DeleteProduct.Execute(ctx, &delete_product.Request{ProductID: lager}))

	all, err := s.ListProducts.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.PlaceOrder.Execute(ctx, &place_order.Request{Lines: []place_order.Line{{ProductID: lager, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
