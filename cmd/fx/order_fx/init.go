package order_fx

import (
	"math/rand"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"shoply/internal/repositories"
	"shoply/internal/services"
	"shoply/pkg/events"
	"shoply/pkg/metrics"
	"shoply/pkg/pubsub"
	"shoply/pkg/utils"
)

var Module = fx.Provide(provideOrderRepo, provideRandInt, provideOrderService)

func provideOrderRepo(db *gorm.DB) repositories.OrderRepositoryInterface {
	return repositories.NewOrderRepository(db)
}

func provideRandInt() func(n int) int {
	return rand.Intn
}

func provideOrderService(
	orders repositories.OrderRepositoryInterface,
	carts repositories.CartRepositoryInterface,
	catalog repositories.ProductCatalog,
	payments services.PaymentService,
	pricing services.PricingConfig,
	broker *pubsub.Broker,
	mail services.IMailService,
	checkoutMetrics *metrics.CheckoutMetrics,
	publisher *events.Publisher,
	clock utils.Clock,
	randInt func(n int) int,
) services.OrderService {
	return services.NewOrderService(orders, carts, catalog, payments, pricing, broker, mail, checkoutMetrics, publisher, clock, randInt)
}
