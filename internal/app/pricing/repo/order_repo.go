package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/models/m_order"
	"github.com/light-bringer/dynprice-service/internal/models/m_order_line"
	"github.com/light-bringer/dynprice-service/internal/pkg/committer"
	"github.com/light-bringer/dynprice-service/internal/pkg/query"
)

// OrderRepo implements OrderRepository for Spanner. Lines are interleaved in
// their order row.
type OrderRepo struct {
	client    *spanner.Client
	committer *committer.Committer
	model     *m_order.Model
	lineModel *m_order_line.Model
}

var _ contracts.OrderRepository = (*OrderRepo)(nil)

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(client *spanner.Client, c *committer.Committer) *OrderRepo {
	return &OrderRepo{
		client:    client,
		committer: c,
		model:     m_order.NewModel(),
		lineModel: m_order_line.NewModel(),
	}
}

// SaveOrder writes the order header and its lines in one commit.
func (r *OrderRepo) SaveOrder(ctx context.Context, order *domain.Order) error {
	lines := order.Lines()

	plan := committer.NewPlan()
	plan.Add(r.model.InsertMut(&m_order.Data{
		OrderID:   order.ID(),
		Total:     *order.Total().Rat(),
		LineCount: int64(len(lines)),
		PlacedAt:  order.PlacedAt(),
	}))
	for idx, line := range lines {
		plan.Add(r.lineModel.InsertMut(&m_order_line.Data{
			OrderID:   order.ID(),
			LineNo:    int64(idx),
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: *line.UnitPrice.Rat(),
		}))
	}

	if err := r.committer.Apply(ctx, plan); err != nil {
		return translateErr("save order "+order.ID(), err)
	}
	return nil
}

// ListOrders reads headers and lines from one snapshot, oldest order first.
func (r *OrderRepo) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	txn := r.client.ReadOnlyTransaction()
	defer txn.Close()

	headers, err := r.readHeaders(ctx, txn)
	if err != nil {
		return nil, err
	}
	lines, err := r.readLines(ctx, txn)
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(headers))
	for _, h := range headers {
		orders = append(orders, domain.ReconstructOrder(
			h.OrderID,
			lines[h.OrderID],
			domain.NewMoneyFromRat(&h.Total),
			h.PlacedAt,
		))
	}
	return orders, nil
}

func (r *OrderRepo) readHeaders(ctx context.Context, txn *spanner.ReadOnlyTransaction) ([]*m_order.Data, error) {
	stmt := query.From(m_order.TableName).
		Select(m_order.Columns()...).
		OrderBy(m_order.PlacedAt, query.Asc).
		OrderBy(m_order.OrderID, query.Asc).
		Build()

	iter := txn.Query(ctx, stmt)
	defer iter.Stop()

	headers := make([]*m_order.Data, 0)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateErr("list orders", err)
		}

		var data m_order.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse order: %w", err)
		}
		headers = append(headers, &data)
	}
	return headers, nil
}

func (r *OrderRepo) readLines(ctx context.Context, txn *spanner.ReadOnlyTransaction) (map[string][]domain.OrderLine, error) {
	stmt := query.From(m_order_line.TableName).
		Select(r.lineModel.ReadColumns()...).
		OrderBy(m_order_line.OrderID, query.Asc).
		OrderBy(m_order_line.LineNo, query.Asc).
		Build()

	iter := txn.Query(ctx, stmt)
	defer iter.Stop()

	lines := make(map[string][]domain.OrderLine)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateErr("list order lines", err)
		}

		var data m_order_line.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse order line: %w", err)
		}
		lines[data.OrderID] = append(lines[data.OrderID], domain.OrderLine{
			ProductID: data.ProductID,
			Quantity:  data.Quantity,
			UnitPrice: domain.NewMoneyFromRat(&data.UnitPrice),
		})
	}
	return lines, nil
}
