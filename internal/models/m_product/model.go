package m_product

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the products table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

func (m *Model) values(data *Data) []interface{} {
	return []interface{}{
		data.ProductID,
		data.Name,
		data.CategoryKey,
		&data.CurrentPrice,
		&data.MinPrice,
		&data.MaxPrice,
		data.SalesCount,
		data.LastSaleAt,
		data.HistorySeq,
		data.CreatedAt,
		data.UpdatedAt,
	}
}

// InsertMut creates a mutation inserting a new product. It fails on commit with
// AlreadyExists when the id is taken.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(TableName, Columns(), m.values(data))
}

// UpdateMut creates a mutation rewriting the mutable pricing columns.
func (m *Model) UpdateMut(data *Data) *spanner.Mutation {
	return spanner.Update(
		TableName,
		[]string{
			ProductID,
			CurrentPrice,
			SalesCount,
			LastSaleAt,
			HistorySeq,
			UpdatedAt,
		},
		[]interface{}{
			data.ProductID,
			&data.CurrentPrice,
			data.SalesCount,
			data.LastSaleAt,
			data.HistorySeq,
			data.UpdatedAt,
		},
	)
}

// DeleteMut creates a mutation deleting a product. Interleaved price history
// rows are removed by the cascade.
func (m *Model) DeleteMut(productID string) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{productID})
}
