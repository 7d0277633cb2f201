package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/get_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_orders"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_price_history"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_products"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo/memory"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/repo/postgres"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/scheduler"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/adjust_price"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/create_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/decay_prices"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/delete_product"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/place_order"
	"github.com/light-bringer/dynprice-service/internal/config"
	"github.com/light-bringer/dynprice-service/internal/obs"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
	"github.com/light-bringer/dynprice-service/internal/pkg/committer"
	transport "github.com/light-bringer/dynprice-service/internal/transport/http"
)

// ServiceOptions holds all dependencies for the application.
type ServiceOptions struct {
	Products  contracts.ProductRepository
	History   contracts.PriceHistoryRepository
	Orders    contracts.OrderRepository
	ReadModel contracts.ReadModel

	// Commands
	CreateProduct *create_product.Interactor
	DeleteProduct *delete_product.Interactor
	AdjustPrice   *adjust_price.Interactor
	PlaceOrder    *place_order.Interactor
	DecayPrices   *decay_prices.Interactor

	// Queries
	GetProduct       *get_product.Query
	ListProducts     *list_products.Query
	ListPriceHistory *list_price_history.Query
	ListOrders       *list_orders.Query

	Scheduler   *scheduler.Scheduler
	HTTPHandler *transport.Handler

	closers []func()
}

// Option overrides a default dependency.
type Option func(*buildOptions)

type buildOptions struct {
	clock   clock.Clock
	trigger scheduler.Trigger
	onSweep func(decay_prices.SweepReport, error)
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *buildOptions) { o.clock = c }
}

// WithTrigger replaces the decay ticker.
func WithTrigger(t scheduler.Trigger) Option {
	return func(o *buildOptions) { o.trigger = t }
}

// WithSweepObserver is called after every decay sweep.
func WithSweepObserver(fn func(decay_prices.SweepReport, error)) Option {
	return func(o *buildOptions) { o.onSweep = fn }
}

// NewServiceOptions creates and wires up all application dependencies.
func NewServiceOptions(ctx context.Context, cfg config.Config, log *slog.Logger, opts ...Option) (*ServiceOptions, error) {
	log = obs.OrNop(log)
	bo := buildOptions{clock: clock.NewRealClock()}
	for _, opt := range opts {
		opt(&bo)
	}
	if bo.trigger == nil {
		bo.trigger = scheduler.NewTickerTrigger(cfg.Decay.Interval)
	}

	s := &ServiceOptions{}

	// 1. Storage
	if err := s.openStorage(ctx, cfg.Storage, log); err != nil {
		return nil, err
	}

	// 2. Pricing rules
	catalog, err := cfg.Catalog()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to build demand catalog: %w", err)
	}
	predictor, err := domain.NewPricePredictor(cfg.Predictor, catalog)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to build predictor: %w", err)
	}
	s.ReadModel = repo.NewReadModel(s.Products, s.History, catalog, predictor)

	// 3. Command use cases (write operations)
	s.CreateProduct = create_product.NewInteractor(s.Products, bo.clock, cfg.Pricing.DefaultBounds, log)
	s.DeleteProduct = delete_product.NewInteractor(s.Products, log)
	s.AdjustPrice = adjust_price.NewInteractor(s.Products, catalog, bo.clock, log)
	s.PlaceOrder = place_order.NewInteractor(s.AdjustPrice, s.Orders, bo.clock, log)
	s.DecayPrices = decay_prices.NewInteractor(s.Products, catalog, bo.clock, cfg.DecayEngineConfig(), log)

	// 4. Query use cases (read operations)
	s.GetProduct = get_product.NewQuery(s.ReadModel)
	s.ListProducts = list_products.NewQuery(s.ReadModel)
	s.ListPriceHistory = list_price_history.NewQuery(s.ReadModel)
	s.ListOrders = list_orders.NewQuery(s.Orders)

	// 5. Background decay
	s.Scheduler = scheduler.New(s.DecayPrices, bo.trigger, scheduler.Config{
		TickTimeout: cfg.Decay.TickTimeout,
		OnSweep:     bo.onSweep,
	}, log)

	// 6. HTTP handler
	s.HTTPHandler = transport.NewHandler(
		s.CreateProduct,
		s.DeleteProduct,
		s.PlaceOrder,
		s.GetProduct,
		s.ListProducts,
		s.ListPriceHistory,
		s.ListOrders,
		log,
	)

	return s, nil
}

func (s *ServiceOptions) openStorage(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) error {
	switch cfg.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		s.Products, s.History, s.Orders = store, store, store

	case config.DriverSpanner:
		client, err := spanner.NewClient(ctx, cfg.SpannerDatabase)
		if err != nil {
			return fmt.Errorf("failed to create Spanner client: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		c := committer.NewCommitter(client)
		s.Products = repo.NewProductRepo(client, c)
		s.History = repo.NewPriceHistoryRepo(client)
		s.Orders = repo.NewOrderRepo(client, c)

	case config.DriverPostgres:
		if cfg.AutoMigrate {
			if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
				return fmt.Errorf("failed to migrate postgres: %w", err)
			}
			log.Info("postgres migrations applied")
		}
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN, cfg.PostgresMaxConn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		store := postgres.NewStore(pool)
		s.Products, s.History, s.Orders = store, store, store

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	log.Info("storage ready", "driver", cfg.Driver)
	return nil
}

// Close closes all resources.
func (s *ServiceOptions) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
