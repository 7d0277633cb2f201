package m_order_line

// Table name constant
const TableName = "order_lines"

// Field name constants for type-safe database access
const (
	OrderID   = "order_id"
	LineNo    = "line_no"
	ProductID = "product_id"
	Quantity  = "quantity"
	UnitPrice = "unit_price"
)
