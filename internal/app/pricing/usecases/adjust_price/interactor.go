package adjust_price

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

// Request describes one sale line.
type Request struct {
	ProductID string
	Quantity  int64
}

// Interactor applies the demand adjustment for a sale.
type Interactor struct {
	repo    contracts.ProductRepository
	catalog *domain.DemandCatalog
	clock   clock.Clock
	log     *slog.Logger
}

// NewInteractor creates a new adjust price interactor.
func NewInteractor(
	repo contracts.ProductRepository,
	catalog *domain.DemandCatalog,
	clock clock.Clock,
	log *slog.Logger,
) *Interactor {
	return &Interactor{
		repo:    repo,
		catalog: catalog,
		clock:   clock,
		log:     obs.OrNop(log),
	}
}

// Execute records the sale and moves the price one step. The returned entry is
// nil when the price was already at the bound it moved towards.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*contracts.MutationResult, error) {
	if err := i.validate(req); err != nil {
		return nil, err
	}

	res, err := i.repo.Mutate(ctx, req.ProductID, func(state *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
		// read under the unit so ledger timestamps follow commit order
		now := i.clock.Now()

		change, err := state.ApplySale(req.Quantity, i.catalog.Profile(state.CategoryKey()), now)
		if err != nil {
			return nil, err
		}
		if change == nil {
			return nil, nil
		}
		return domain.NewPriceHistoryEntry(uuid.New().String(), state.ID(), change, now), nil
	})
	if err != nil {
		return nil, fmt.Errorf("adjust price of %s: %w", req.ProductID, err)
	}

	if res.Entry != nil {
		i.log.InfoContext(ctx, "price adjusted",
			"product_id", req.ProductID,
			"quantity", req.Quantity,
			"old_price", res.Entry.OldPrice().String(),
			"new_price", res.Entry.NewPrice().String(),
			"reason", string(res.Entry.Reason()),
		)
	} else {
		i.log.DebugContext(ctx, "sale recorded at bound",
			"product_id", req.ProductID,
			"quantity", req.Quantity,
			"price", res.State.CurrentPrice().String(),
		)
	}

	return res, nil
}

func (i *Interactor) validate(req *Request) error {
	if req == nil || req.ProductID == "" {
		return domain.ErrEmptyProductID
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidQuantity, req.Quantity)
	}
	return nil
}
