package decay_prices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/obs"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

// Config tunes the decay engine.
type Config struct {
	// Grace is how long after the last sale a price is left alone.
	Grace time.Duration
	// PerProductTimeout bounds each product's atomic unit during a sweep.
	PerProductTimeout time.Duration
}

// DefaultConfig returns a two minute grace window and a five second per-product deadline.
func DefaultConfig() Config {
	return Config{
		Grace:             2 * time.Minute,
		PerProductTimeout: 5 * time.Second,
	}
}

// SweepReport summarises one pass over all products.
type SweepReport struct {
	Scanned int
	Changed int
	Skipped int
	Failed  int
}

// Interactor lowers the price of idle products.
type Interactor struct {
	repo    contracts.ProductRepository
	catalog *domain.DemandCatalog
	clock   clock.Clock
	cfg     Config
	log     *slog.Logger
}

// NewInteractor creates a new decay interactor. Zero config fields take their defaults.
func NewInteractor(
	repo contracts.ProductRepository,
	catalog *domain.DemandCatalog,
	clock clock.Clock,
	cfg Config,
	log *slog.Logger,
) *Interactor {
	def := DefaultConfig()
	if cfg.Grace < 0 {
		cfg.Grace = 0
	}
	if cfg.PerProductTimeout <= 0 {
		cfg.PerProductTimeout = def.PerProductTimeout
	}
	return &Interactor{
		repo:    repo,
		catalog: catalog,
		clock:   clock,
		cfg:     cfg,
		log:     obs.OrNop(log),
	}
}

// DecayProduct applies one decay step to a single product in its own atomic unit.
// A nil Entry in the result means the product was skipped.
func (i *Interactor) DecayProduct(ctx context.Context, productID string) (*contracts.MutationResult, error) {
	if productID == "" {
		return nil, domain.ErrEmptyProductID
	}

	res, err := i.repo.Mutate(ctx, productID, func(state *domain.ProductPriceState) (*domain.PriceHistoryEntry, error) {
		now := i.clock.Now()

		change := state.ApplyDecay(i.catalog.Profile(state.CategoryKey()), i.cfg.Grace, now)
		if change == nil {
			return nil, nil
		}
		return domain.NewPriceHistoryEntry(uuid.New().String(), state.ID(), change, now), nil
	})
	if err != nil {
		return nil, fmt.Errorf("decay %s: %w", productID, err)
	}

	if res.Entry != nil {
		i.log.InfoContext(ctx, "price decayed",
			"product_id", productID,
			"old_price", res.Entry.OldPrice().String(),
			"new_price", res.Entry.NewPrice().String(),
			"reason", string(res.Entry.Reason()),
			"detail", res.Entry.Detail(),
		)
	}
	return res, nil
}

// Sweep runs DecayProduct once for every product. Per-product failures are logged
// and counted; they never stop the sweep. Each product gets its own
// PerProductTimeout detached from ctx, so a tick deadline spent on stalled
// products does not starve the ones listed after them. Only cancellation of ctx
// ends the sweep early, and then ctx.Err is returned.
func (i *Interactor) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	ids, err := i.repo.ListIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list products for decay: %w", err)
	}

	detached := context.WithoutCancel(ctx)
	overran := false
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				i.log.WarnContext(detached, "decay sweep interrupted",
					"scanned", report.Scanned,
					"remaining", len(ids)-report.Scanned,
					"error", err,
				)
				return report, err
			}
			if !overran {
				overran = true
				i.log.WarnContext(detached, "decay sweep overran its deadline",
					"scanned", report.Scanned,
					"remaining", len(ids)-report.Scanned,
				)
			}
		}

		report.Scanned++
		changed, err := i.decayOne(detached, id)
		switch {
		case err == nil && changed:
			report.Changed++
		case err == nil:
			report.Skipped++
		case errors.Is(err, domain.ErrProductNotFound):
			// deleted between listing and mutating
			report.Skipped++
		default:
			report.Failed++
			i.log.ErrorContext(detached, "decay failed",
				"product_id", id,
				"transient", domain.IsTransient(err),
				"error", err,
			)
		}
	}

	i.log.DebugContext(detached, "decay sweep finished",
		"scanned", report.Scanned,
		"changed", report.Changed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (i *Interactor) decayOne(ctx context.Context, id string) (changed bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, i.cfg.PerProductTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decay %s panicked: %v", id, r)
		}
	}()

	res, err := i.DecayProduct(ctx, id)
	if err != nil {
		return false, err
	}
	return res.Entry != nil, nil
}
