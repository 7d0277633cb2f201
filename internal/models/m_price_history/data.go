package m_price_history

import (
	"math/big"
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents a price history record in the database. Rows are interleaved in
// products and keyed by (product_id, history_seq).
type Data struct {
	ProductID  string             `spanner:"product_id"`
	HistorySeq int64              `spanner:"history_seq"`
	HistoryID  string             `spanner:"history_id"`
	OldPrice   big.Rat            `spanner:"old_price"`
	NewPrice   big.Rat            `spanner:"new_price"`
	Reason     string             `spanner:"reason"`
	Detail     spanner.NullString `spanner:"detail"`
	ChangedAt  time.Time          `spanner:"changed_at"`
}

// Model provides type-safe database operations for price history.
type Model struct{}

// NewModel creates a new price history model.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation for inserting a price history record.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(TableName, m.ReadColumns(), []interface{}{
		data.ProductID,
		data.HistorySeq,
		data.HistoryID,
		&data.OldPrice,
		&data.NewPrice,
		data.Reason,
		data.Detail,
		data.ChangedAt,
	})
}

// ReadColumns returns the column names for reading price history.
func (m *Model) ReadColumns() []string {
	return []string{
		ProductID,
		HistorySeq,
		HistoryID,
		OldPrice,
		NewPrice,
		Reason,
		Detail,
		ChangedAt,
	}
}
