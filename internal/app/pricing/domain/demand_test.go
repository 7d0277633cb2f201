package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemandCatalog_Classify(t *testing.T) {
	c := DefaultDemandCatalog()

	assert.Equal(t, HighDemand, c.Classify("cocktails"))
	assert.Equal(t, HighDemand, c.Classify("Shots"))
	assert.Equal(t, HighDemand, c.Classify("  COCKTAILS "))
	assert.Equal(t, Normal, c.Classify("beer"))
	assert.Equal(t, Normal, c.Classify(""))
}

func TestDemandCatalog_Profile(t *testing.T) {
	c := DefaultDemandCatalog()

	high := c.Profile("cocktails")
	assert.True(t, high.SaleMultiplier().Equal(decimal.RequireFromString("1.10")))
	assert.True(t, high.DecayStep.Equal(decimal.RequireFromString("0.05")))

	normal := c.Profile("wine")
	assert.True(t, normal.SaleMultiplier().Equal(decimal.RequireFromString("0.94")))
	assert.True(t, normal.DecayStep.Equal(decimal.RequireFromString("0.03")))
}

func TestNewDemandCatalog(t *testing.T) {
	t.Run("new class is a data change", func(t *testing.T) {
		happyHour := DemandProfile{
			Class:           DemandClass("happy_hour"),
			RisesOnSale:     false,
			DownPct:         decimal.RequireFromString("0.15"),
			DecayStep:       decimal.RequireFromString("0.10"),
			ColdStartFactor: decimal.RequireFromString("0.90"),
		}
		c, err := NewDemandCatalog(
			[]DemandProfile{DefaultNormalProfile(), happyHour},
			map[string]DemandClass{"Pitchers": "happy_hour"},
		)
		require.NoError(t, err)

		assert.Equal(t, DemandClass("happy_hour"), c.Classify("pitchers"))
		assert.True(t, c.Profile("pitchers").SaleMultiplier().Equal(decimal.RequireFromString("0.85")))
	})

	t.Run("normal profile required", func(t *testing.T) {
		_, err := NewDemandCatalog([]DemandProfile{DefaultHighDemandProfile()}, nil)
		assert.Error(t, err)
	})

	t.Run("unknown class rejected", func(t *testing.T) {
		_, err := NewDemandCatalog(
			[]DemandProfile{DefaultNormalProfile()},
			map[string]DemandClass{"shots": HighDemand},
		)
		assert.Error(t, err)
	})
}
