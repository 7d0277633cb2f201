package domain

import (
	"fmt"
	"time"
)

// OrderLine is one sold product in a recorded order.
type OrderLine struct {
	ProductID string
	Quantity  int64
	UnitPrice Money
}

// Subtotal returns UnitPrice × Quantity.
func (l OrderLine) Subtotal() Money { return l.UnitPrice.MulInt(l.Quantity) }

// Order is a completed sale at the till. Orders are immutable once recorded and
// outlive the products they reference.
type Order struct {
	id       string
	lines    []OrderLine
	total    Money
	placedAt time.Time
}

// NewOrder records lines placed at placedAt and computes the total.
func NewOrder(id string, lines []OrderLine, placedAt time.Time) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	total := Zero
	for idx, line := range lines {
		if line.ProductID == "" {
			return nil, fmt.Errorf("order line %d: %w", idx, ErrEmptyProductID)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("order line %d: %w", idx, ErrInvalidQuantity)
		}
		if line.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("order line %d: %w", idx, ErrInvalidPrice)
		}
		total = total.Add(line.Subtotal())
	}

	return ReconstructOrder(id, lines, total, placedAt), nil
}

// ReconstructOrder reconstitutes an order from storage.
func ReconstructOrder(id string, lines []OrderLine, total Money, placedAt time.Time) *Order {
	copied := make([]OrderLine, len(lines))
	copy(copied, lines)
	return &Order{
		id:       id,
		lines:    copied,
		total:    total,
		placedAt: placedAt,
	}
}

// Getters
func (o *Order) ID() string          { return o.id }
func (o *Order) Total() Money        { return o.total }
func (o *Order) PlacedAt() time.Time { return o.placedAt }

// Lines returns a copy of the order lines in till order.
func (o *Order) Lines() []OrderLine {
	out := make([]OrderLine, len(o.lines))
	copy(out, o.lines)
	return out
}

// Revenue sums the totals of orders.
func Revenue(orders []*Order) Money {
	sum := Zero
	for _, o := range orders {
		sum = sum.Add(o.total)
	}
	return sum
}
