package create_product

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/obs"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

// Request contains the data needed to create a product. Nil bounds fall back to
// the interactor's defaults.
type Request struct {
	Name         string
	CategoryKey  string
	InitialPrice domain.Money
	MinPrice     *domain.Money
	MaxPrice     *domain.Money
}

// Interactor handles the create product use case.
type Interactor struct {
	repo     contracts.ProductRepository
	clock    clock.Clock
	defaults domain.PriceBounds
	log      *slog.Logger
}

// NewInteractor creates a new create product interactor. defaults applies to
// requests that leave a bound unset.
func NewInteractor(
	repo contracts.ProductRepository,
	clock clock.Clock,
	defaults domain.PriceBounds,
	log *slog.Logger,
) *Interactor {
	return &Interactor{
		repo:     repo,
		clock:    clock,
		defaults: defaults,
		log:      obs.OrNop(log),
	}
}

// Execute creates the product and returns its id. The initial price is clamped
// into the bounds; no ledger entry is written.
func (i *Interactor) Execute(ctx context.Context, req *Request) (string, error) {
	if err := i.validate(req); err != nil {
		return "", err
	}

	bounds := i.defaults
	if req.MinPrice != nil {
		bounds.Min = *req.MinPrice
	}
	if req.MaxPrice != nil {
		bounds.Max = *req.MaxPrice
	}

	productID := uuid.New().String()
	state, err := domain.NewProductPriceState(
		productID,
		req.Name,
		req.CategoryKey,
		req.InitialPrice,
		bounds,
		i.clock.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}

	if err := i.repo.Insert(ctx, state); err != nil {
		return "", fmt.Errorf("failed to store product: %w", err)
	}

	i.log.InfoContext(ctx, "product created",
		"product_id", productID,
		"category", state.CategoryKey(),
		"price", state.CurrentPrice().String(),
		"min_price", state.MinPrice().String(),
		"max_price", state.MaxPrice().String(),
	)
	return productID, nil
}

func (i *Interactor) validate(req *Request) error {
	if req == nil || req.Name == "" {
		return domain.ErrEmptyName
	}
	if req.CategoryKey == "" {
		return domain.ErrEmptyCategory
	}
	if req.InitialPrice.IsNegative() {
		return domain.ErrInvalidPrice
	}
	return nil
}
