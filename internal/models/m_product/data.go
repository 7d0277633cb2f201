package m_product

import (
	"math/big"
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the products table.
// HistorySeq is the sequence number of the newest price_history row.
type Data struct {
	ProductID    string           `spanner:"product_id"`
	Name         string           `spanner:"name"`
	CategoryKey  string           `spanner:"category_key"`
	CurrentPrice big.Rat          `spanner:"current_price"`
	MinPrice     big.Rat          `spanner:"min_price"`
	MaxPrice     big.Rat          `spanner:"max_price"`
	SalesCount   int64            `spanner:"sales_count"`
	LastSaleAt   spanner.NullTime `spanner:"last_sale_at"`
	HistorySeq   int64            `spanner:"history_seq"`
	CreatedAt    time.Time        `spanner:"created_at"`
	UpdatedAt    time.Time        `spanner:"updated_at"`
}
