package metrics_fx

import (
	"go.uber.org/fx"

	"shoply/pkg/metrics"
)

var Module = fx.Provide(provideCheckoutMetrics)

func provideCheckoutMetrics() *metrics.CheckoutMetrics {
	return metrics.NewCheckoutMetrics()
}
