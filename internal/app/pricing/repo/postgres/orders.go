package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/contracts"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

var _ contracts.OrderRepository = (*Store)(nil)

// SaveOrder inserts the order and its lines in one transaction. The lines go
// out as a single batch.
func (s *Store) SaveOrder(ctx context.Context, order *domain.Order) error {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO orders (order_id, total, placed_at) VALUES ($1, $2, $3)`,
			order.ID(), toNumeric(order.Total()), order.PlacedAt(),
		); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for idx, line := range order.Lines() {
			batch.Queue(`
				INSERT INTO order_lines (order_id, line_no, product_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5)`,
				order.ID(), idx, line.ProductID, line.Quantity, toNumeric(line.UnitPrice),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return translateErr("save order "+order.ID(), err)
	}
	return nil
}

// ListOrders returns every order oldest first, lines in till order.
func (s *Store) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.order_id, o.total, o.placed_at, l.product_id, l.quantity, l.unit_price
		FROM orders o
		JOIN order_lines l ON l.order_id = o.order_id
		ORDER BY o.placed_at, o.order_id, l.line_no`)
	if err != nil {
		return nil, translateErr("list orders", err)
	}
	defer rows.Close()

	type header struct {
		id       string
		total    domain.Money
		placedAt time.Time
		lines    []domain.OrderLine
	}
	var headers []*header

	for rows.Next() {
		var (
			id, productID    string
			total, unitPrice pgtype.Numeric
			placedAt         time.Time
			quantity         int64
		)
		if err := rows.Scan(&id, &total, &placedAt, &productID, &quantity, &unitPrice); err != nil {
			return nil, translateErr("list orders", err)
		}

		if len(headers) == 0 || headers[len(headers)-1].id != id {
			totalMoney, err := fromNumeric(total)
			if err != nil {
				return nil, err
			}
			headers = append(headers, &header{id: id, total: totalMoney, placedAt: placedAt.UTC()})
		}
		price, err := fromNumeric(unitPrice)
		if err != nil {
			return nil, err
		}
		h := headers[len(headers)-1]
		h.lines = append(h.lines, domain.OrderLine{ProductID: productID, Quantity: quantity, UnitPrice: price})
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("list orders", err)
	}

	orders := make([]*domain.Order, 0, len(headers))
	for _, h := range headers {
		orders = append(orders, domain.ReconstructOrder(h.id, h.lines, h.total, h.placedAt))
	}
	return orders, nil
}
