package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/toko-promo/internal/pricing"
)

// PromoMetrics records pricing rule outcomes. It satisfies checkout.Observer.
type PromoMetrics struct {
	RuleEvaluations *prometheus.CounterVec
	DiscountAmount  prometheus.Histogram
	QuoteDuration   *prometheus.HistogramVec
	SessionsActive  prometheus.Gauge
}

// NewPromoMetrics registers the promotion collectors on reg.
func NewPromoMetrics(namespace string, reg prometheus.Registerer) *PromoMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PromoMetrics{
		RuleEvaluations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_rule_evaluations_total",
			Help:      "Pricing rule evaluations by rule and outcome.",
		}, []string{"rule", "result"})),
		DiscountAmount: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_discount_amount",
			Help:      "Total discount granted per priced checkout.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		})),
		QuoteDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_quote_duration_ms",
			Help:      "Time spent evaluating pricing rules in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}, []string{"result"})),
		SessionsActive: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_active",
			Help:      "Checkout sessions currently held in memory.",
		})),
	}
}

// ObserveRule counts one rule evaluation. result is "applied" or "skipped".
func (m *PromoMetrics) ObserveRule(rule string, applied bool, _ pricing.Money) {
	if m == nil {
		return
	}
	result := "skipped"
	if applied {
		result = "applied"
	}
	m.RuleEvaluations.WithLabelValues(rule, result).Inc()
}

// ObserveQuote records the duration of a full evaluation and, on success,
// the discount it produced.
func (m *PromoMetrics) ObserveQuote(elapsed time.Duration, discount pricing.Money, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.QuoteDuration.WithLabelValues("error").Observe(DurationMillis(elapsed))
		return
	}
	m.QuoteDuration.WithLabelValues("ok").Observe(DurationMillis(elapsed))
	m.DiscountAmount.Observe(discount.InexactFloat64())
}

// ObserveSessions sets the active session gauge.
func (m *PromoMetrics) ObserveSessions(active int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(active))
}
