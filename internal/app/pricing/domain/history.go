package domain

import (
	"fmt"
	"time"
)

// ChangeReason tags why a price moved.
type ChangeReason string

const (
	ReasonDemandBump ChangeReason = "demand-bump"
	ReasonDemandDrop ChangeReason = "demand-drop"
	ReasonAutoDecay  ChangeReason = "auto-decay"
)

// Valid reports whether r is one of the known reasons.
func (r ChangeReason) Valid() bool {
	switch r {
	case ReasonDemandBump, ReasonDemandDrop, ReasonAutoDecay:
		return true
	}
	return false
}

// PriceChange is the outcome of a mutation that moved the stored price.
type PriceChange struct {
	OldPrice Money
	NewPrice Money
	Reason   ChangeReason
	Detail   string
}

// PriceHistoryEntry is one immutable record in a product's price ledger.
type PriceHistoryEntry struct {
	id        string
	productID string
	oldPrice  Money
	newPrice  Money
	changedAt time.Time
	reason    ChangeReason
	detail    string
}

// NewPriceHistoryEntry records change for productID at changedAt.
func NewPriceHistoryEntry(id, productID string, change *PriceChange, changedAt time.Time) *PriceHistoryEntry {
	return &PriceHistoryEntry{
		id:        id,
		productID: productID,
		oldPrice:  change.OldPrice,
		newPrice:  change.NewPrice,
		changedAt: changedAt,
		reason:    change.Reason,
		detail:    change.Detail,
	}
}

// ReconstructPriceHistoryEntry reconstitutes an entry from storage.
func ReconstructPriceHistoryEntry(
	id, productID string,
	oldPrice, newPrice Money,
	changedAt time.Time,
	reason ChangeReason,
	detail string,
) *PriceHistoryEntry {
	return &PriceHistoryEntry{
		id:        id,
		productID: productID,
		oldPrice:  oldPrice,
		newPrice:  newPrice,
		changedAt: changedAt,
		reason:    reason,
		detail:    detail,
	}
}

// Getters
func (e *PriceHistoryEntry) ID() string           { return e.id }
func (e *PriceHistoryEntry) ProductID() string    { return e.productID }
func (e *PriceHistoryEntry) OldPrice() Money      { return e.oldPrice }
func (e *PriceHistoryEntry) NewPrice() Money      { return e.newPrice }
func (e *PriceHistoryEntry) ChangedAt() time.Time { return e.changedAt }
func (e *PriceHistoryEntry) Reason() ChangeReason { return e.reason }
func (e *PriceHistoryEntry) Detail() string       { return e.detail }

// Change returns newPrice - oldPrice.
func (e *PriceHistoryEntry) Change() Money { return e.newPrice.Sub(e.oldPrice) }

// IsUp reports whether the entry raised the price.
func (e *PriceHistoryEntry) IsUp() bool { return e.newPrice.GreaterThan(e.oldPrice) }

// String renders the entry for logs.
func (e *PriceHistoryEntry) String() string {
	return fmt.Sprintf("%s %s->%s (%s)", e.productID, e.oldPrice, e.newPrice, e.reason)
}
