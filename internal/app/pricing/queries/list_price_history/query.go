package list_price_history

import (
	"context"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Request identifies the product whose ledger is read.
type Request struct {
	ProductID string
}

// Query handles the price history query.
type Query struct {
	readModel contracts.ReadModel
}

// NewQuery creates a new price history query.
func NewQuery(readModel contracts.ReadModel) *Query {
	return &Query{readModel: readModel}
}

// Execute returns the ledger oldest first.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*contracts.PriceHistoryDTO, error) {
	if req == nil || req.ProductID == "" {
		return nil, domain.ErrEmptyProductID
	}
	return q.readModel.ListPriceHistory(ctx, req.ProductID)
}
