package domain

import (
	"fmt"
	"time"
)

// Default price bounds applied when a product is created without explicit bounds.
var (
	DefaultMinPrice = NewMoneyFromCents(400)
	DefaultMaxPrice = NewMoneyFromCents(900)
)

// PriceBounds is the closed interval a product's price must stay within.
type PriceBounds struct {
	Min Money
	Max Money
}

// DefaultPriceBounds returns [4.00, 9.00].
func DefaultPriceBounds() PriceBounds {
	return PriceBounds{Min: DefaultMinPrice, Max: DefaultMaxPrice}
}

// Validate checks 0 <= Min <= Max.
func (b PriceBounds) Validate() error {
	if b.Min.IsNegative() || b.Max.IsNegative() {
		return ErrInvalidPrice
	}
	if b.Min.GreaterThan(b.Max) {
		return fmt.Errorf("%w: min %s > max %s", ErrInvalidPriceBounds, b.Min, b.Max)
	}
	return nil
}

// Contains reports whether Min <= price <= Max.
func (b PriceBounds) Contains(price Money) bool {
	return !price.LessThan(b.Min) && !price.GreaterThan(b.Max)
}

// ProductPriceState is the mutable per-product pricing record.
// Only ApplySale and ApplyDecay change the price after creation.
type ProductPriceState struct {
	id           string
	name         string
	categoryKey  string
	currentPrice Money
	bounds       PriceBounds
	salesCount   int64
	lastSaleAt   *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewProductPriceState creates the pricing record for a new product.
// Bounds are fixed here and the initial price is clamped into them.
func NewProductPriceState(id, name, categoryKey string, initial Money, bounds PriceBounds, now time.Time) (*ProductPriceState, error) {
	if id == "" {
		return nil, ErrEmptyProductID
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	if categoryKey == "" {
		return nil, ErrEmptyCategory
	}
	if initial.IsNegative() {
		return nil, ErrInvalidPrice
	}
	bounds = PriceBounds{Min: bounds.Min.Round(), Max: bounds.Max.Round()}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	return &ProductPriceState{
		id:           id,
		name:         name,
		categoryKey:  categoryKey,
		currentPrice: initial.Round().Clamp(bounds.Min, bounds.Max),
		bounds:       bounds,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructProductPriceState reconstitutes a record from storage without clamping.
func ReconstructProductPriceState(
	id, name, categoryKey string,
	currentPrice Money,
	bounds PriceBounds,
	salesCount int64,
	lastSaleAt *time.Time,
	createdAt, updatedAt time.Time,
) *ProductPriceState {
	return &ProductPriceState{
		id:           id,
		name:         name,
		categoryKey:  categoryKey,
		currentPrice: currentPrice,
		bounds:       bounds,
		salesCount:   salesCount,
		lastSaleAt:   lastSaleAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// Getters
func (p *ProductPriceState) ID() string           { return p.id }
func (p *ProductPriceState) Name() string         { return p.name }
func (p *ProductPriceState) CategoryKey() string  { return p.categoryKey }
func (p *ProductPriceState) CurrentPrice() Money  { return p.currentPrice }
func (p *ProductPriceState) Bounds() PriceBounds  { return p.bounds }
func (p *ProductPriceState) MinPrice() Money      { return p.bounds.Min }
func (p *ProductPriceState) MaxPrice() Money      { return p.bounds.Max }
func (p *ProductPriceState) SalesCount() int64    { return p.salesCount }
func (p *ProductPriceState) CreatedAt() time.Time { return p.createdAt }
func (p *ProductPriceState) UpdatedAt() time.Time { return p.updatedAt }

// LastSaleAt returns a copy of the last sale time, or nil if the product never sold.
func (p *ProductPriceState) LastSaleAt() *time.Time {
	if p.lastSaleAt == nil {
		return nil
	}
	t := *p.lastSaleAt
	return &t
}

// Clone returns an independent copy.
func (p *ProductPriceState) Clone() *ProductPriceState {
	c := *p
	c.lastSaleAt = p.LastSaleAt()
	return &c
}

// CheckInvariant verifies min <= price <= max.
func (p *ProductPriceState) CheckInvariant() error {
	if err := p.bounds.Validate(); err != nil {
		return fmt.Errorf("%w: product %s: %v", ErrInvariantViolation, p.id, err)
	}
	if !p.bounds.Contains(p.currentPrice) {
		return fmt.Errorf("%w: product %s price %s outside [%s, %s]",
			ErrInvariantViolation, p.id, p.currentPrice, p.bounds.Min, p.bounds.Max)
	}
	return nil
}

// ApplySale records a sale of quantity units and applies one multiplicative demand
// step. It returns nil when the clamped price equals the old price.
func (p *ProductPriceState) ApplySale(quantity int64, profile DemandProfile, now time.Time) (*PriceChange, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	p.salesCount += quantity
	at := now
	p.lastSaleAt = &at
	p.updatedAt = now

	oldPrice := p.currentPrice
	newPrice := oldPrice.MulDecimal(profile.SaleMultiplier()).Round().Clamp(p.bounds.Min, p.bounds.Max)
	if newPrice.Equals(oldPrice) {
		return nil, nil
	}

	p.currentPrice = newPrice

	reason := ReasonDemandDrop
	if newPrice.GreaterThan(oldPrice) {
		reason = ReasonDemandBump
	}
	return &PriceChange{
		OldPrice: oldPrice,
		NewPrice: newPrice,
		Reason:   reason,
		Detail:   fmt.Sprintf("sale of %d (%s)", quantity, profile.Class),
	}, nil
}

// IdleFor returns how long the product has gone without a sale.
// ok is false when it never sold, which callers treat as unbounded idle.
func (p *ProductPriceState) IdleFor(now time.Time) (idle time.Duration, ok bool) {
	if p.lastSaleAt == nil {
		return 0, false
	}
	return now.Sub(*p.lastSaleAt), true
}

// ApplyDecay lowers an idle price by the profile's fixed step, never below the floor.
// It returns nil while inside the grace window, when decay is disabled for the
// profile, or when the price is already at the floor.
func (p *ProductPriceState) ApplyDecay(profile DemandProfile, grace time.Duration, now time.Time) *PriceChange {
	idle, sold := p.IdleFor(now)
	if sold && idle <= grace {
		return nil
	}

	step := profile.DecayStep
	if step.Sign() <= 0 {
		return nil
	}

	oldPrice := p.currentPrice
	newPrice := oldPrice.SubDecimal(step).Round()
	if newPrice.LessThan(p.bounds.Min) {
		newPrice = p.bounds.Min
	}
	if newPrice.Equals(oldPrice) {
		return nil
	}

	p.currentPrice = newPrice
	p.updatedAt = now

	detail := "no sales recorded"
	if sold {
		detail = fmt.Sprintf("no sales for %s", idle.Truncate(time.Second))
	}
	return &PriceChange{
		OldPrice: oldPrice,
		NewPrice: newPrice,
		Reason:   ReasonAutoDecay,
		Detail:   detail,
	}
}
