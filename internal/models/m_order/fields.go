package m_order

// Field name constants for the orders table.
const (
	TableName = "orders"

	OrderID   = "order_id"
	Total     = "total"
	LineCount = "line_count"
	PlacedAt  = "placed_at"
)

// Columns lists every column in Data order.
func Columns() []string {
	return []string{
		OrderID,
		Total,
		LineCount,
		PlacedAt,
	}
}
