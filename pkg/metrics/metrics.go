package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CheckoutMetrics struct {
	Transactions   *prometheus.CounterVec
	Orders         prometheus.Counter
	IntentsSwept   prometheus.Counter
	GatewayLatency *prometheus.HistogramVec
}

func NewCheckoutMetrics() *CheckoutMetrics {
	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shoply",
		Subsystem: "payments",
		Name:      "transactions_total",
		Help:      "Ledger transactions recorded, by type and status.",
	}, []string{"type", "status"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shoply",
		Subsystem: "orders",
		Name:      "materialized_total",
		Help:      "Orders materialized from intents or cart checkouts.",
	})
	swept := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shoply",
		Subsystem: "intents",
		Name:      "expired_swept_total",
		Help:      "Purchase intents transitioned to expired by the sweeper.",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shoply",
		Subsystem: "payments",
		Name:      "gateway_duration_ms",
		Help:      "Payment gateway call latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"operation"})

	prometheus.MustRegister(transactions, orders, swept, latency)
	return &CheckoutMetrics{
		Transactions:   transactions,
		Orders:         orders,
		IntentsSwept:   swept,
		GatewayLatency: latency,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
