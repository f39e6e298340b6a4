package intent_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"shoply/internal/api/controllers"
	"shoply/internal/repositories"
	"shoply/internal/services"
	mem "shoply/pkg/memcache"
	"shoply/pkg/metrics"
	"shoply/pkg/utils"
)

var Module = fx.Provide(
	provideIntentRepo, provideIntentService, provideCheckoutController,
)

func provideIntentRepo(db *gorm.DB) repositories.IntentRepositoryInterface {
	return repositories.NewIntentRepository(db)
}

func provideIntentService(
	intents repositories.IntentRepositoryInterface,
	catalog repositories.ProductCatalog,
	orders services.OrderService,
	tokens mem.RedirectTokenStore,
	checkoutMetrics *metrics.CheckoutMetrics,
	clock utils.Clock,
) services.PurchaseIntentService {
	return services.NewPurchaseIntentService(intents, catalog, orders, tokens, checkoutMetrics, clock)
}

func provideCheckoutController(intentService services.PurchaseIntentService, orderService services.OrderService) *controllers.CheckoutController {
	return controllers.NewCheckoutController(intentService, orderService)
}
