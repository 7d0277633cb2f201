package repo

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/models/m_price_history"
	"github.com/light-bringer/dynprice-service/internal/models/m_product"
	"github.com/light-bringer/dynprice-service/internal/pkg/committer"
	"github.com/light-bringer/dynprice-service/internal/pkg/query"
)

// ProductRepo implements ProductRepository for Spanner.
type ProductRepo struct {
	client       *spanner.Client
	committer    *committer.Committer
	model        *m_product.Model
	historyModel *m_price_history.Model
}

var _ contracts.ProductRepository = (*ProductRepo)(nil)

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(client *spanner.Client, c *committer.Committer) *ProductRepo {
	return &ProductRepo{
		client:       client,
		committer:    c,
		model:        m_product.NewModel(),
		historyModel: m_price_history.NewModel(),
	}
}

// Insert stores a new product.
func (r *ProductRepo) Insert(ctx context.Context, state *domain.ProductPriceState) error {
	if err := state.CheckInvariant(); err != nil {
		return err
	}

	plan := committer.NewPlan()
	plan.Add(r.model.InsertMut(productToData(state, 0)))

	if err := r.committer.Apply(ctx, plan); err != nil {
		return translateErr("insert product "+state.ID(), err)
	}
	return nil
}

// GetByID retrieves a product by ID, reconstructing the domain aggregate.
func (r *ProductRepo) GetByID(ctx context.Context, productID string) (*domain.ProductPriceState, error) {
	row, err := r.client.Single().ReadRow(ctx, m_product.TableName, spanner.Key{productID}, m_product.Columns())
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrProductNotFound
		}
		return nil, translateErr("read product", err)
	}

	var data m_product.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse product: %w", err)
	}
	return dataToProduct(&data), nil
}

// List returns every product ordered by creation time.
func (r *ProductRepo) List(ctx context.Context) ([]*domain.ProductPriceState, error) {
	stmt := byCreation(query.From(m_product.TableName).Select(m_product.Columns()...)).Build()

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	states := make([]*domain.ProductPriceState, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateErr("list products", err)
		}

		var data m_product.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse product: %w", err)
		}
		states = append(states, dataToProduct(&data))
	}
	return states, nil
}

// ListIDs returns all product ids ordered by creation time.
func (r *ProductRepo) ListIDs(ctx context.Context) ([]string, error) {
	stmt := byCreation(query.From(m_product.TableName).Select(m_product.ProductID)).Build()

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	ids := make([]string, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateErr("list product ids", err)
		}
		var id string
		if err := row.Column(0, &id); err != nil {
			return nil, fmt.Errorf("failed to parse product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Mutate reads the product, applies fn and writes the product row and the ledger
// row in one read-write transaction. The row lock taken by the read serializes
// concurrent mutations of the same product.
func (r *ProductRepo) Mutate(ctx context.Context, productID string, fn contracts.MutateFunc) (*contracts.MutationResult, error) {
	var result *contracts.MutationResult

	err := r.committer.ApplyInTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) (*committer.CommitPlan, error) {
		result = nil

		row, err := txn.ReadRow(ctx, m_product.TableName, spanner.Key{productID}, m_product.Columns())
		if err != nil {
			if spanner.ErrCode(err) == codes.NotFound {
				return nil, domain.ErrProductNotFound
			}
			return nil, err
		}

		var data m_product.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse product: %w", err)
		}
		state := dataToProduct(&data)

		entry, err := contracts.ApplyMutation(state, fn)
		if err != nil {
			return nil, err
		}

		seq := data.HistorySeq
		plan := committer.NewPlan()
		if entry != nil {
			seq++
			plan.Add(r.historyModel.InsertMut(entryToData(entry, seq)))
		}
		plan.Add(r.model.UpdateMut(productToData(state, seq)))

		result = &contracts.MutationResult{State: state, Entry: entry}
		return plan, nil
	})
	if err != nil {
		return nil, translateErr("mutate product "+productID, err)
	}
	return result, nil
}

// Delete removes the product; its history goes with it through the interleave cascade.
func (r *ProductRepo) Delete(ctx context.Context, productID string) error {
	err := r.committer.ApplyInTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) (*committer.CommitPlan, error) {
		if _, err := txn.ReadRow(ctx, m_product.TableName, spanner.Key{productID}, []string{m_product.ProductID}); err != nil {
			if spanner.ErrCode(err) == codes.NotFound {
				return nil, domain.ErrProductNotFound
			}
			return nil, err
		}
		plan := committer.NewPlan()
		plan.Add(r.model.DeleteMut(productID))
		return plan, nil
	})
	if err != nil {
		return translateErr("delete product "+productID, err)
	}
	return nil
}

func productToData(state *domain.ProductPriceState, historySeq int64) *m_product.Data {
	data := &m_product.Data{
		ProductID:    state.ID(),
		Name:         state.Name(),
		CategoryKey:  state.CategoryKey(),
		CurrentPrice: *state.CurrentPrice().Rat(),
		MinPrice:     *state.MinPrice().Rat(),
		MaxPrice:     *state.MaxPrice().Rat(),
		SalesCount:   state.SalesCount(),
		HistorySeq:   historySeq,
		CreatedAt:    state.CreatedAt(),
		UpdatedAt:    state.UpdatedAt(),
	}
	if at := state.LastSaleAt(); at != nil {
		data.LastSaleAt = spanner.NullTime{Time: *at, Valid: true}
	}
	return data
}

func dataToProduct(data *m_product.Data) *domain.ProductPriceState {
	var lastSaleAt *time.Time
	if data.LastSaleAt.Valid {
		at := data.LastSaleAt.Time
		lastSaleAt = &at
	}

	return domain.ReconstructProductPriceState(
		data.ProductID,
		data.Name,
		data.CategoryKey,
		domain.NewMoneyFromRat(&data.CurrentPrice),
		domain.PriceBounds{
			Min: domain.NewMoneyFromRat(&data.MinPrice),
			Max: domain.NewMoneyFromRat(&data.MaxPrice),
		},
		data.SalesCount,
		lastSaleAt,
		data.CreatedAt,
		data.UpdatedAt,
	)
}

func byCreation(b *query.Builder) *query.Builder {
	return b.OrderBy(m_product.CreatedAt, query.Asc).OrderBy(m_product.ProductID, query.Asc)
}
