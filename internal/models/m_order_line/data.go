package m_order_line

import (
	"math/big"

	"cloud.google.com/go/spanner"
)

// Data represents one order line. Rows are interleaved in orders and keyed by
// (order_id, line_no). product_id carries no foreign key so orders outlive
// deleted products.
type Data struct {
	OrderID   string  `spanner:"order_id"`
	LineNo    int64   `spanner:"line_no"`
	ProductID string  `spanner:"product_id"`
	Quantity  int64   `spanner:"quantity"`
	UnitPrice big.Rat `spanner:"unit_price"`
}

// Model provides type-safe database operations for order lines.
type Model struct{}

// NewModel creates a new order line model.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation for inserting an order line.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(TableName, m.ReadColumns(), []interface{}{
		data.OrderID,
		data.LineNo,
		data.ProductID,
		data.Quantity,
		&data.UnitPrice,
	})
}

// ReadColumns returns the column names for reading order lines.
func (m *Model) ReadColumns() []string {
	return []string{
		OrderID,
		LineNo,
		ProductID,
		Quantity,
		UnitPrice,
	}
}
