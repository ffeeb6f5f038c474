package execution

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_orders_placed_total",
		Help: "Market orders filled and committed",
	}, []string{
		// buy or sell
		"side",
	})
	ordersRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_orders_rejected_total",
		Help: "Market orders rejected before or during execution",
	}, []string{
		// error kind, or "store" for infrastructure failures
		"kind",
	})
	placeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_place_duration_seconds",
		Help:    "Duration of order placement including lock waits.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"side"})
)

func init() {
	prometheus.MustRegister(ordersPlaced)
	prometheus.MustRegister(ordersRejected)
	prometheus.MustRegister(placeDuration)
}
