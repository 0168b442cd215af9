package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart, mirror, and checkout activity.
type StorefrontMetrics struct {
	intents          *prometheus.CounterVec
	mirrorWrites     *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	cartItems        prometheus.Gauge
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	intents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_intents_total",
		Help: "Cart intents applied by the cart engine.",
	}, []string{"intent"})
	mirrorWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mirror_writes_total",
		Help: "Cart mirror writes by result (ok, failed, stale).",
	}, []string{"result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkouts_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_checkout_duration_seconds",
		Help:    "Duration of order submissions that reached the backend.",
		Buckets: prometheus.DefBuckets,
	})
	cartItems := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_cart_item_count",
		Help: "Units currently held in the cart.",
	})
	reg.MustRegister(intents, mirrorWrites, checkouts, checkoutDuration, cartItems)
	return &StorefrontMetrics{
		intents:          intents,
		mirrorWrites:     mirrorWrites,
		checkouts:        checkouts,
		checkoutDuration: checkoutDuration,
		cartItems:        cartItems,
	}
}

// ObserveIntent counts an applied intent and records the resulting unit count.
func (m *StorefrontMetrics) ObserveIntent(intent string, itemCount int) {
	if m == nil || m.intents == nil {
		return
	}
	m.intents.WithLabelValues(normalizeLabel(intent)).Inc()
	m.cartItems.Set(float64(itemCount))
}

// IncMirrorWrite counts a mirror write by result.
func (m *StorefrontMetrics) IncMirrorWrite(result string) {
	if m == nil || m.mirrorWrites == nil {
		return
	}
	m.mirrorWrites.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncCheckout counts an order submission outcome.
func (m *StorefrontMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveCheckoutDuration records how long a backend submission took.
func (m *StorefrontMetrics) ObserveCheckoutDuration(d time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
