package m_price_history

// Table name constant
const TableName = "price_history"

// Field name constants for type-safe database access
const (
	ProductID  = "product_id"
	HistorySeq = "history_seq"
	HistoryID  = "history_id"
	OldPrice   = "old_price"
	NewPrice   = "new_price"
	Reason     = "reason"
	Detail     = "detail"
	ChangedAt  = "changed_at"
)
