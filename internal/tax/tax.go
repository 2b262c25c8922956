// Package tax classifies positions into capital gains buckets.
package tax

import (
	"time"

	"finance-tracker/internal/model"
)

// LongTermMonths is the holding period after which stocks and mutual funds
// are taxed as long-term gains. A position must be held strictly longer.
const LongTermMonths = 12

// Classify returns the tax bucket for an asset held for holdingMonths.
func Classify(asset model.AssetType, holdingMonths int) model.TaxStatus {
	switch asset {
	case model.Stock, model.MutualFund:
		if holdingMonths > LongTermMonths {
			return model.LTCG
		}
		return model.STCG
	}
	return model.TaxNotApplicable
}

// HoldingMonths counts calendar months between the purchase and now. Days are
// ignored: a purchase on Jan 31 is held one month on Feb 1.
func HoldingMonths(purchase model.Date, now time.Time) int {
	return (now.Year()-purchase.Year())*12 + int(now.Month()) - int(purchase.Month())
}
