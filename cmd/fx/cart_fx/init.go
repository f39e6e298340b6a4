package cart_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"shoply/internal/api/controllers"
	"shoply/internal/repositories"
	"shoply/internal/services"
	"shoply/pkg/pubsub"
)

var Module = fx.Provide(
	provideCartRepo, providePricingConfig, provideCartService, provideCartController,
)

func provideCartRepo(db *gorm.DB) repositories.CartRepositoryInterface {
	return repositories.NewCartRepository(db)
}

func providePricingConfig() services.PricingConfig {
	return services.DefaultPricingConfig()
}

func provideCartService(
	carts repositories.CartRepositoryInterface,
	catalog repositories.ProductCatalog,
	pricing services.PricingConfig,
	broker *pubsub.Broker,
) services.CartService {
	return services.NewCartService(carts, catalog, pricing, broker)
}

func provideCartController(cartService services.CartService, broker *pubsub.Broker) *controllers.CartController {
	return controllers.NewCartController(cartService, broker)
}
