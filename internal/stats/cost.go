package stats

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xtding233/gacha-simulator/internal/gacha"
)

// Defaults observed for bundled draws: 11 draws per bundle, 27,500 per bundle.
const (
	DefaultBundleSize = 11
	DefaultBundleCost = 27500
	DefaultCurrency   = "KRW"
)

// Pricing describes how draws are sold.
type Pricing struct {
	BundleSize int    `json:"bundle_size"` // draws per bundle
	BundleCost int64  `json:"bundle_cost"` // price of one bundle in minor units
	Currency   string `json:"currency"`
}

// DefaultPricing returns the 11-draw / 27,500 KRW bundle.
func DefaultPricing() Pricing {
	return Pricing{BundleSize: DefaultBundleSize, BundleCost: DefaultBundleCost, Currency: DefaultCurrency}
}

// Cost is what a run of draws costs when only whole bundles can be bought.
type Cost struct {
	Draws    int             `json:"draws"`
	Bundles  int             `json:"bundles"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// DrawCost returns ceil(drawCount/bundleSize) bundles at bundleCost each.
func DrawCost(drawCount int, p Pricing) (Cost, error) {
	if drawCount < 1 {
		return Cost{}, fmt.Errorf("%w: draw_count must be >= 1, got %d", gacha.ErrInvalidConfiguration, drawCount)
	}
	if p.BundleSize < 1 {
		return Cost{}, fmt.Errorf("%w: bundle_size must be >= 1, got %d", gacha.ErrInvalidConfiguration, p.BundleSize)
	}
	if p.BundleCost < 0 {
		return Cost{}, fmt.Errorf("%w: bundle_cost must be >= 0, got %d", gacha.ErrInvalidConfiguration, p.BundleCost)
	}
	bundles := drawCount / p.BundleSize
	if drawCount%p.BundleSize != 0 {
		bundles++
	}
	return Cost{
		Draws:    drawCount,
		Bundles:  bundles,
		Total:    decimal.NewFromInt(p.BundleCost).Mul(decimal.NewFromInt(int64(bundles))),
		Currency: p.Currency,
	}, nil
}

// PerTopTier divides the total over n top-tier results.
// ok is false when n is zero; the average is undefined then.
func (c Cost) PerTopTier(n int) (avg decimal.Decimal, ok bool) {
	if n <= 0 {
		return decimal.Zero, false
	}
	return c.Total.Div(decimal.NewFromInt(int64(n))), true
}
