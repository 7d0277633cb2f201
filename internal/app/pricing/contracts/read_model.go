package contracts

import (
	"context"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// ProductDisplayView is the read-only projection shown on menus and price boards.
// It is rebuilt on every fetch.
type ProductDisplayView struct {
	ProductID   string
	Name        string
	CategoryKey string
	DemandClass domain.DemandClass
	Price       domain.Money
	MinPrice    domain.Money
	MaxPrice    domain.Money
	SalesCount  int64
	LastSaleAt  *time.Time

	// PriceChange and PriceUp come from the single most recent ledger entry only.
	// Both are nil when the product has no history.
	PriceChange *domain.Money
	PriceUp     *bool

	// PredictedPrice is the smoothed trend estimate.
	PredictedPrice domain.Money
}

// PriceHistoryDTO is one ledger row for audit and charting.
type PriceHistoryDTO struct {
	HistoryID string
	ChangedAt time.Time
	OldPrice  domain.Money
	NewPrice  domain.Money
	Change    domain.Money
	Reason    domain.ChangeReason
	Detail    string
}

// ListFilter narrows ListProductViews. Empty fields match everything.
type ListFilter struct {
	CategoryKey string
	DemandClass domain.DemandClass
}

// ReadModel builds the display projections. Every call recomputes from the
// current state and ledger.
type ReadModel interface {
	// GetProductView returns the view for one product or ErrProductNotFound.
	GetProductView(ctx context.Context, productID string) (*ProductDisplayView, error)

	// ListProductViews returns views for all matching products ordered by creation time.
	ListProductViews(ctx context.Context, filter *ListFilter) ([]*ProductDisplayView, error)

	// ListPriceHistory returns the product's ledger, oldest first.
	ListPriceHistory(ctx context.Context, productID string) ([]*PriceHistoryDTO, error)
}
