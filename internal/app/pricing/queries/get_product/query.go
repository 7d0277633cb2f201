package get_product

import (
	"context"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Request contains the product ID to retrieve.
type Request struct {
	ProductID string
}

// Query handles the get product query use case.
type Query struct {
	readModel contracts.ReadModel
}

// NewQuery creates a new get product query.
func NewQuery(readModel contracts.ReadModel) *Query {
	return &Query{
		readModel: readModel,
	}
}

// Execute returns the freshly computed display view of a product.
func (q *Query) Execute(ctx context.Context, req *Request) (*contracts.ProductDisplayView, error) {
	if req == nil || req.ProductID == "" {
		return nil, domain.ErrEmptyProductID
	}
	return q.readModel.GetProductView(ctx, req.ProductID)
}
