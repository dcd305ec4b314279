package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveQuoteCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewPricingMetrics(reg)

	m.ObserveQuote("checkout", true, 5*time.Millisecond)
	m.ObserveQuote("checkout", true, 3*time.Millisecond)
	m.ObserveQuote("", false, time.Millisecond)

	if got := testutil.ToFloat64(m.quotes.WithLabelValues("checkout", "yes")); got != 2 {
		t.Fatalf("expected 2 discounted checkout quotes, got %v", got)
	}
	if got := testutil.ToFloat64(m.quotes.WithLabelValues("unknown", "no")); got != 1 {
		t.Fatalf("expected 1 unknown-surface quote, got %v", got)
	}
}

func TestNilReceiverIsNoop(t *testing.T) {
	t.Parallel()

	var m *PricingMetrics
	m.ObserveQuote("checkout", false, time.Millisecond)
	m.IncPromotionApplied("p1")
}
