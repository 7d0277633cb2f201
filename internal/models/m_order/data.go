package m_order

import (
	"math/big"
	"time"
)

// Data represents the database model for the orders table.
type Data struct {
	OrderID   string    `spanner:"order_id"`
	Total     big.Rat   `spanner:"total"`
	LineCount int64     `spanner:"line_count"`
	PlacedAt  time.Time `spanner:"placed_at"`
}
