package m_order

import (
	"cloud.google.com/go/spanner"
)

// Model provides type-safe operations on the orders table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation inserting an order header.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(TableName, Columns(), []interface{}{
		data.OrderID,
		&data.Total,
		data.LineCount,
		data.PlacedAt,
	})
}
