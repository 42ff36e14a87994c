package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 12345, 5000_00} {
		if got := ToCents(FromCents(cents)); got != cents {
			t.Errorf("round trip %d: got %d", cents, got)
		}
	}
}

func TestToCentsRounds(t *testing.T) {
	if got := ToCents(decimal.RequireFromString("1.005")); got != 101 {
		t.Errorf("expected half-up rounding to 101, got %d", got)
	}
}
