package commission

import (
	"testing"

	"github.com/google/uuid"

	"github.com/salesdeskhq/salesdesk-backend/pkg/db/models"
)

func tier(thresholdCents, amountCents int64) models.CommissionTier {
	return models.CommissionTier{
		ID:                    uuid.New(),
		SalesThresholdCents:   thresholdCents,
		CommissionAmountCents: amountCents,
		IsActive:              true,
	}
}

func TestCalculateSingleTier(t *testing.T) {
	tiers := []models.CommissionTier{tier(5000_00, 300_00)}

	got := Calculate(12000_00, tiers)

	if got.TotalCents != 600_00 {
		t.Fatalf("expected total 60000, got %d", got.TotalCents)
	}
	if got.RemainingCents != 2000_00 {
		t.Fatalf("expected remaining 200000, got %d", got.RemainingCents)
	}
	if len(got.Earnings) != 1 {
		t.Fatalf("expected one breakdown row, got %d", len(got.Earnings))
	}
	if got.Earnings[0].Multiplier != 2 || got.Earnings[0].EarnedCents != 600_00 {
		t.Fatalf("unexpected breakdown row: %+v", got.Earnings[0])
	}
}

func TestCalculateLowerTiersConsumeFirst(t *testing.T) {
	// Sales of exactly 10000 never reach the 10000 tier: the 5000 tier
	// matches twice and consumes the whole amount first.
	tiers := []models.CommissionTier{
		tier(10000_00, 700_00),
		tier(5000_00, 300_00),
	}

	got := Calculate(10000_00, tiers)

	if got.TotalCents != 600_00 {
		t.Fatalf("expected total 60000, got %d", got.TotalCents)
	}
	if got.RemainingCents != 0 {
		t.Fatalf("expected remaining 0, got %d", got.RemainingCents)
	}
	if len(got.Earnings) != 1 {
		t.Fatalf("expected only the earning tier in the breakdown, got %d rows", len(got.Earnings))
	}
	if got.Earnings[0].ThresholdCents != 5000_00 || got.Earnings[0].Multiplier != 2 {
		t.Fatalf("expected the 5000 tier to consume everything, got %+v", got.Earnings[0])
	}
}

func TestCalculateIdentities(t *testing.T) {
	tiers := []models.CommissionTier{
		tier(2500_00, 100_00),
		tier(5000_00, 300_00),
		tier(20000_00, 1500_00),
	}

	for _, sales := range []int64{0, 999_00, 2500_00, 7499_99, 31000_50} {
		got := Calculate(sales, tiers)

		var earnedSum, consumed int64
		for _, row := range got.Earnings {
			earnedSum += row.EarnedCents
			consumed += row.ThresholdCents * row.Multiplier
		}
		if got.TotalCents != earnedSum {
			t.Fatalf("sales %d: total %d != breakdown sum %d", sales, got.TotalCents, earnedSum)
		}
		want := sales - consumed
		if want < 0 {
			want = 0
		}
		if got.RemainingCents != want {
			t.Fatalf("sales %d: remaining %d, want %d", sales, got.RemainingCents, want)
		}

		// pure: same inputs, same outputs
		again := Calculate(sales, tiers)
		if again.TotalCents != got.TotalCents || again.RemainingCents != got.RemainingCents {
			t.Fatalf("sales %d: calculator is not deterministic", sales)
		}
	}
}

func TestCalculateSkipsInactiveTiers(t *testing.T) {
	inactive := tier(1000_00, 999_00)
	inactive.IsActive = false
	tiers := []models.CommissionTier{inactive, tier(5000_00, 300_00)}

	got := Calculate(6000_00, tiers)

	if got.TotalCents != 300_00 {
		t.Fatalf("expected inactive tier ignored, total %d", got.TotalCents)
	}
}

func TestCalculateNoTiers(t *testing.T) {
	got := Calculate(5000_00, nil)
	if got.TotalCents != 0 || got.RemainingCents != 5000_00 {
		t.Fatalf("unexpected result without tiers: %+v", got)
	}
}

func TestNextThreshold(t *testing.T) {
	tiers := []models.CommissionTier{
		tier(5000_00, 300_00),
		tier(10000_00, 700_00),
	}

	next, ok := NextThreshold(4000_00, tiers)
	if !ok || next != 5000_00 {
		t.Fatalf("expected next 500000, got %d ok=%v", next, ok)
	}

	next, ok = NextThreshold(5000_00, tiers)
	if !ok || next != 10000_00 {
		t.Fatalf("expected next 1000000 at exact threshold, got %d ok=%v", next, ok)
	}

	if _, ok := NextThreshold(10000_00, tiers); ok {
		t.Fatal("expected no next threshold past the top tier")
	}
}
