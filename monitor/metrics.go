package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// APIOrderRequestQueue counts order placements currently being served
	APIOrderRequestQueue = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "api_order_request_queue",
		Help: "Order placement requests in flight",
	}, []string{})
	// RequestDelay is the duration of the last request per route
	RequestDelay = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "api_request_delay_seconds",
		Help: "Duration of the last request per route and method",
	}, []string{"route", "method"})
)

func init() {
	prometheus.MustRegister(APIOrderRequestQueue)
	prometheus.MustRegister(RequestDelay)
}
