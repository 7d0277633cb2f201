package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DemandClass groups categories that share pricing behaviour.
type DemandClass string

const (
	HighDemand DemandClass = "high_demand"
	Normal     DemandClass = "normal"
)

// DemandProfile is the per-class pricing configuration.
type DemandProfile struct {
	Class DemandClass

	// RisesOnSale selects UpPct (price goes up on a sale) over DownPct.
	RisesOnSale bool
	UpPct       decimal.Decimal
	DownPct     decimal.Decimal

	// DecayStep is the fixed amount subtracted per decay tick. Zero or less disables decay.
	DecayStep decimal.Decimal

	// ColdStartFactor scales the current price when a product has no history to predict from.
	ColdStartFactor decimal.Decimal
}

// SaleMultiplier returns the factor applied to the price for one order line.
func (p DemandProfile) SaleMultiplier() decimal.Decimal {
	if p.RisesOnSale {
		return decimal.NewFromInt(1).Add(p.UpPct)
	}
	return decimal.NewFromInt(1).Sub(p.DownPct)
}

// DefaultHighDemandProfile returns the profile for cocktails and shots.
func DefaultHighDemandProfile() DemandProfile {
	return DemandProfile{
		Class:           HighDemand,
		RisesOnSale:     true,
		UpPct:           decimal.RequireFromString("0.10"),
		DownPct:         decimal.RequireFromString("0.06"),
		DecayStep:       decimal.RequireFromString("0.05"),
		ColdStartFactor: decimal.RequireFromString("1.07"),
	}
}

// DefaultNormalProfile returns the profile for every other category.
func DefaultNormalProfile() DemandProfile {
	return DemandProfile{
		Class:           Normal,
		RisesOnSale:     false,
		UpPct:           decimal.RequireFromString("0.10"),
		DownPct:         decimal.RequireFromString("0.06"),
		DecayStep:       decimal.RequireFromString("0.03"),
		ColdStartFactor: decimal.RequireFromString("0.97"),
	}
}

// DefaultHighDemandCategories are the category keys that start out as HighDemand.
var DefaultHighDemandCategories = []string{"cocktails", "shots"}

// DemandCatalog maps category keys to demand profiles. Adding a class or moving a
// category between classes is a data change made through NewDemandCatalog.
// A catalog is read-only after construction and safe for concurrent use.
type DemandCatalog struct {
	membership map[string]DemandClass
	profiles   map[DemandClass]DemandProfile
	fallback   DemandClass
}

// NewDemandCatalog builds a catalog. membership maps category keys (matched
// case-insensitively) to classes; categories not listed fall back to Normal,
// which must therefore be among profiles.
func NewDemandCatalog(profiles []DemandProfile, membership map[string]DemandClass) (*DemandCatalog, error) {
	c := &DemandCatalog{
		membership: make(map[string]DemandClass, len(membership)),
		profiles:   make(map[DemandClass]DemandProfile, len(profiles)),
		fallback:   Normal,
	}

	for _, p := range profiles {
		if p.Class == "" {
			return nil, fmt.Errorf("demand profile without class")
		}
		c.profiles[p.Class] = p
	}
	if _, ok := c.profiles[c.fallback]; !ok {
		return nil, fmt.Errorf("demand catalog requires a %q profile", c.fallback)
	}

	for key, class := range membership {
		if _, ok := c.profiles[class]; !ok {
			return nil, fmt.Errorf("category %q refers to unknown demand class %q", key, class)
		}
		c.membership[normalizeCategory(key)] = class
	}

	return c, nil
}

// DefaultDemandCatalog returns the catalog used by the bar out of the box.
func DefaultDemandCatalog() *DemandCatalog {
	membership := make(map[string]DemandClass, len(DefaultHighDemandCategories))
	for _, key := range DefaultHighDemandCategories {
		membership[key] = HighDemand
	}
	c, err := NewDemandCatalog(
		[]DemandProfile{DefaultHighDemandProfile(), DefaultNormalProfile()},
		membership,
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the demand class for a category key.
func (c *DemandCatalog) Classify(categoryKey string) DemandClass {
	if class, ok := c.membership[normalizeCategory(categoryKey)]; ok {
		return class
	}
	return c.fallback
}

// Profile returns the pricing profile for a category key.
func (c *DemandCatalog) Profile(categoryKey string) DemandProfile {
	return c.profiles[c.Classify(categoryKey)]
}

func normalizeCategory(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
