package delete_product

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/obs"
)

// Request identifies the product to remove.
type Request struct {
	ProductID string
}

// Interactor removes a product and its price history.
type Interactor struct {
	repo contracts.ProductRepository
	log  *slog.Logger
}

// NewInteractor creates a new delete product interactor.
func NewInteractor(repo contracts.ProductRepository, log *slog.Logger) *Interactor {
	return &Interactor{repo: repo, log: obs.OrNop(log)}
}

// Execute deletes the product. The ledger goes with it.
func (i *Interactor) Execute(ctx context.Context, req *Request) error {
	if req == nil || req.ProductID == "" {
		return domain.ErrEmptyProductID
	}

	if err := i.repo.Delete(ctx, req.ProductID); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", req.ProductID, err)
	}

	i.log.InfoContext(ctx, "product deleted", "product_id", req.ProductID)
	return nil
}
