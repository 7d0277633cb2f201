package m_product

// Field name constants for the products table.
const (
	TableName = "products"

	ProductID    = "product_id"
	Name         = "name"
	CategoryKey  = "category_key"
	CurrentPrice = "current_price"
	MinPrice     = "min_price"
	MaxPrice     = "max_price"
	SalesCount   = "sales_count"
	LastSaleAt   = "last_sale_at"
	HistorySeq   = "history_seq"
	CreatedAt    = "created_at"
	UpdatedAt    = "updated_at"
)

// Columns lists every column in Data order.
func Columns() []string {
	return []string{
		ProductID,
		Name,
		CategoryKey,
		CurrentPrice,
		MinPrice,
		MaxPrice,
		SalesCount,
		LastSaleAt,
		HistorySeq,
		CreatedAt,
		UpdatedAt,
	}
}
