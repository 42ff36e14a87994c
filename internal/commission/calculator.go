package commission

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
	"github.com/salesdeskhq/salesdesk-backend/pkg/money"
)

// TierEarning is one row of a commission breakdown.
type TierEarning struct {
	TierID         uuid.UUID
	ThresholdCents int64
	AmountCents    int64
	Multiplier     int64
	EarnedCents    int64
}

// Breakdown is the full result of running the tier table over a sales amount.
type Breakdown struct {
	TotalCents     int64
	RemainingCents int64
	Earnings       []TierEarning
}

// Calculate runs the tier table over the cumulative sales amount.
//
// Tiers are evaluated in ascending threshold order and each tier consumes
// the amount it matched before the next tier sees what is left. A manager
// at exactly a higher threshold can therefore earn less than that tier's
// amount because lower tiers ate the balance first. That is the intended
// behavior; changing it silently re-prices historical commissions.
func Calculate(salesCents int64, tiers []models.CommissionTier) Breakdown {
	if salesCents <= 0 || len(tiers) == 0 {
		return Breakdown{RemainingCents: maxInt64(salesCents, 0)}
	}

	ordered := make([]models.CommissionTier, 0, len(tiers))
	for _, tier := range tiers {
		if !tier.IsActive || tier.SalesThresholdCents <= 0 {
			continue
		}
		ordered = append(ordered, tier)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SalesThresholdCents < ordered[j].SalesThresholdCents
	})

	remaining := money.FromCents(salesCents)
	total := decimal.Zero
	earnings := make([]TierEarning, 0, len(ordered))

	for _, tier := range ordered {
		threshold := money.FromCents(tier.SalesThresholdCents)
		multiplier := remaining.Div(threshold).Floor()
		// a tier the remainder never reached earns nothing and is left
		// out of the breakdown
		if multiplier.IsZero() {
			continue
		}
		earned := money.FromCents(tier.CommissionAmountCents).Mul(multiplier)
		total = total.Add(earned)
		remaining = remaining.Sub(threshold.Mul(multiplier))
		earnings = append(earnings, TierEarning{
			TierID:         tier.ID,
			ThresholdCents: tier.SalesThresholdCents,
			AmountCents:    tier.CommissionAmountCents,
			Multiplier:     multiplier.IntPart(),
			EarnedCents:    money.ToCents(earned),
		})
	}

	return Breakdown{
		TotalCents:     money.ToCents(total),
		RemainingCents: money.ToCents(remaining),
		Earnings:       earnings,
	}
}

// NextThreshold returns the smallest active threshold strictly greater than
// the current sales amount, or false when the manager is past every tier.
func NextThreshold(salesCents int64, tiers []models.CommissionTier) (int64, bool) {
	var next int64
	found := false
	for _, tier := range tiers {
		if !tier.IsActive || tier.SalesThresholdCents <= salesCents {
			continue
		}
		if !found || tier.SalesThresholdCents < next {
			next = tier.SalesThresholdCents
			found = true
		}
	}
	return next, found
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
