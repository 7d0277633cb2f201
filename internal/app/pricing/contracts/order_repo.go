package contracts

import (
	"context"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// OrderRepository records completed orders.
type OrderRepository interface {
	// SaveOrder stores a new order with all of its lines in one atomic unit.
	SaveOrder(ctx context.Context, order *domain.Order) error

	// ListOrders returns every recorded order, oldest first.
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}
