package list_products

import (
	"context"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Request contains optional filters.
type Request struct {
	CategoryKey string
	DemandClass string
}

// Query handles the list products query use case.
type Query struct {
	readModel contracts.ReadModel
}

// NewQuery creates a new list products query.
func NewQuery(readModel contracts.ReadModel) *Query {
	return &Query{
		readModel: readModel,
	}
}

// Execute returns the display view of every product matching the filters.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*contracts.ProductDisplayView, error) {
	filter := &contracts.ListFilter{}
	if req != nil {
		filter.CategoryKey = req.CategoryKey
		filter.DemandClass = domain.DemandClass(req.DemandClass)
	}

	return q.readModel.ListProductViews(ctx, filter)
}
