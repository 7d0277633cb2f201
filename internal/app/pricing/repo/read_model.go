package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// ReadModelImpl implements ReadModel on top of any product and ledger store.
type ReadModelImpl struct {
	products  contracts.ProductRepository
	history   contracts.PriceHistoryRepository
	catalog   *domain.DemandCatalog
	predictor *domain.PricePredictor
}

// NewReadModel creates a new ReadModel implementation.
func NewReadModel(
	products contracts.ProductRepository,
	history contracts.PriceHistoryRepository,
	catalog *domain.DemandCatalog,
	predictor *domain.PricePredictor,
) contracts.ReadModel {
	return &ReadModelImpl{
		products:  products,
		history:   history,
		catalog:   catalog,
		predictor: predictor,
	}
}

// GetProductView builds the display view of one product.
func (rm *ReadModelImpl) GetProductView(ctx context.Context, productID string) (*contracts.ProductDisplayView, error) {
	state, err := rm.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return rm.buildView(ctx, state)
}

// ListProductViews builds the display view of every matching product.
func (rm *ReadModelImpl) ListProductViews(ctx context.Context, filter *contracts.ListFilter) ([]*contracts.ProductDisplayView, error) {
	states, err := rm.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	views := make([]*contracts.ProductDisplayView, 0, len(states))
	for _, state := range states {
		if !rm.matches(state, filter) {
			continue
		}
		view, err := rm.buildView(ctx, state)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ListPriceHistory returns the ledger rows for one product.
func (rm *ReadModelImpl) ListPriceHistory(ctx context.Context, productID string) ([]*contracts.PriceHistoryDTO, error) {
	if _, err := rm.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	entries, err := rm.history.AllForProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read price history: %w", err)
	}

	dtos := make([]*contracts.PriceHistoryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = &contracts.PriceHistoryDTO{
			HistoryID: e.ID(),
			ChangedAt: e.ChangedAt(),
			OldPrice:  e.OldPrice(),
			NewPrice:  e.NewPrice(),
			Change:    e.Change(),
			Reason:    e.Reason(),
			Detail:    e.Detail(),
		}
	}
	return dtos, nil
}

func (rm *ReadModelImpl) matches(state *domain.ProductPriceState, filter *contracts.ListFilter) bool {
	if filter == nil {
		return true
	}
	if filter.CategoryKey != "" && !strings.EqualFold(strings.TrimSpace(filter.CategoryKey), strings.TrimSpace(state.CategoryKey())) {
		return false
	}
	if filter.DemandClass != "" && rm.catalog.Classify(state.CategoryKey()) != filter.DemandClass {
		return false
	}
	return true
}

func (rm *ReadModelImpl) buildView(ctx context.Context, state *domain.ProductPriceState) (*contracts.ProductDisplayView, error) {
	view := &contracts.ProductDisplayView{
		ProductID:   state.ID(),
		Name:        state.Name(),
		CategoryKey: state.CategoryKey(),
		DemandClass: rm.catalog.Classify(state.CategoryKey()),
		Price:       state.CurrentPrice(),
		MinPrice:    state.MinPrice(),
		MaxPrice:    state.MaxPrice(),
		SalesCount:  state.SalesCount(),
		LastSaleAt:  state.LastSaleAt(),
	}

	// one ledger read feeds both the trend arrow and the prediction
	window, err := rm.history.LastN(ctx, state.ID(), rm.predictor.Window())
	if err != nil {
		return nil, fmt.Errorf("failed to read price trend for %s: %w", state.ID(), err)
	}
	if len(window) > 0 {
		latest := window[len(window)-1]
		change := latest.Change()
		up := latest.IsUp()
		view.PriceChange = &change
		view.PriceUp = &up
	}
	view.PredictedPrice = rm.predictor.Predict(state, window)

	return view, nil
}
