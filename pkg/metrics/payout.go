package metrics

import "github.com/prometheus/client_golang/prometheus"

// PayoutMetrics records outcomes of payout processing.
type PayoutMetrics struct {
	completed prometheus.Counter
	failure   *prometheus.CounterVec
	amount    prometheus.Counter
}

// NewPayoutMetrics registers payout metrics on the provided registerer.
func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	if reg == nil {
		return &PayoutMetrics{}
	}
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payout_completed_total",
		Help: "Completed payouts.",
	})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_failure_total",
		Help: "Failed payout attempts by error code.",
	}, []string{"code"})
	amount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payout_amount_cents_total",
		Help: "Total cents paid out.",
	})
	reg.MustRegister(completed, failure, amount)
	return &PayoutMetrics{
		completed: completed,
		failure:   failure,
		amount:    amount,
	}
}

// IncCompleted records a successful payout and its amount.
func (p *PayoutMetrics) IncCompleted(amountCents int64) {
	if p == nil || p.completed == nil {
		return
	}
	p.completed.Inc()
	p.amount.Add(float64(amountCents))
}

// IncFailure increments the failure counter for the given error code.
func (p *PayoutMetrics) IncFailure(code string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(code)).Inc()
}
