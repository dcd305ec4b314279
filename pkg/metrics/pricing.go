package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records quote evaluation outcomes.
type PricingMetrics struct {
	duration   *prometheus.HistogramVec
	quotes     *prometheus.CounterVec
	promotions *prometheus.CounterVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_duration_seconds",
		Help:    "Duration of pricing quote evaluations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"surface"})
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_total",
		Help: "Pricing quotes evaluated, labeled by whether a discount applied.",
	}, []string{"surface", "discounted"})
	promotions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promotions_applied_total",
		Help: "Promotions applied to quotes.",
	}, []string{"promotion_id"})
	reg.MustRegister(duration, quotes, promotions)
	return &PricingMetrics{
		duration:   duration,
		quotes:     quotes,
		promotions: promotions,
	}
}

// ObserveQuote records one evaluation's duration and outcome.
func (p *PricingMetrics) ObserveQuote(surface string, discounted bool, elapsed time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	label := normalizeLabel(surface)
	p.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	flag := "no"
	if discounted {
		flag = "yes"
	}
	p.quotes.WithLabelValues(label, flag).Inc()
}

// IncPromotionApplied counts one application of the given promotion.
func (p *PricingMetrics) IncPromotionApplied(promotionID string) {
	if p == nil || p.promotions == nil {
		return
	}
	p.promotions.WithLabelValues(normalizeLabel(promotionID)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
