package services

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// PricingConfig drives cart and order totals. Amounts are minor units,
// rates are basis points.
type PricingConfig struct {
	Currency                   string
	TaxRateBps                 int64 // e.g. 800 = 8%
	FreeShippingThresholdMinor int64 // subtotal at or above ships free
	FlatShippingMinor          int64
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Currency:                   "USD",
		TaxRateBps:                 800,
		FreeShippingThresholdMinor: 5000, // $50.00
		FlatShippingMinor:          500,  // $5.00
	}
}

func (c PricingConfig) Tax(subtotalMinor int64) int64 {
	return subtotalMinor * c.TaxRateBps / 10000
}

func (c PricingConfig) Shipping(subtotalMinor int64) int64 {
	if subtotalMinor >= c.FreeShippingThresholdMinor {
		return 0
	}
	return c.FlatShippingMinor
}

// FeeConfig is the processor fee schedule applied to every ledger row:
// a flat fee plus a percentage of the amount.
type FeeConfig struct {
	FlatMinor int64 // e.g. 30 = $0.30
	RateBps   int64 // e.g. 290 = 2.9%
}

func DefaultFeeConfig() FeeConfig {
	return FeeConfig{FlatMinor: 30, RateBps: 290}
}

type FeeBreakdown struct {
	FlatMinor    int64 `json:"flat_minor"`
	PercentMinor int64 `json:"percent_minor"`
	TotalMinor   int64 `json:"total_minor"`
	NetMinor     int64 `json:"net_minor"`
}

func (f FeeConfig) Breakdown(amountMinor int64) FeeBreakdown {
	percent := amountMinor * f.RateBps / 10000
	total := f.FlatMinor + percent
	return FeeBreakdown{
		FlatMinor:    f.FlatMinor,
		PercentMinor: percent,
		TotalMinor:   total,
		NetMinor:     amountMinor - total,
	}
}

func jsonRaw(v any) datatypes.JSON {
	b, _ := json.Marshal(v)
	return b
}
