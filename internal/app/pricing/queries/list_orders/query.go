package list_orders

import (
	"context"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Request narrows the listing to orders placed in [Since, Until). Zero times are
// unbounded.
type Request struct {
	Since time.Time
	Until time.Time
}

// Result is the matching orders, oldest first, and the revenue they add up to.
type Result struct {
	Orders  []*domain.Order
	Revenue domain.Money
}

// Query handles the order listing query.
type Query struct {
	orders contracts.OrderRepository
}

// NewQuery creates a new order listing query.
func NewQuery(orders contracts.OrderRepository) *Query {
	return &Query{orders: orders}
}

// Execute lists orders and sums their totals.
func (q *Query) Execute(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		req = &Request{}
	}
	if !req.Since.IsZero() && !req.Until.IsZero() && req.Since.After(req.Until) {
		return nil, domain.ErrInvalidOrderRange
	}

	all, err := q.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*domain.Order, 0, len(all))
	for _, o := range all {
		if !req.Since.IsZero() && o.PlacedAt().Before(req.Since) {
			continue
		}
		if !req.Until.IsZero() && !o.PlacedAt().Before(req.Until) {
			continue
		}
		matched = append(matched, o)
	}

	return &Result{Orders: matched, Revenue: domain.Revenue(matched)}, nil
}
