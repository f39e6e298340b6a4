package threeds_fx

import (
	"os"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"shoply/internal/repositories"
	"shoply/internal/services"
	"shoply/pkg/metrics"
	"shoply/pkg/utils"
)

var Module = fx.Provide(provideThreeDSRepo, provideThreeDSService)

func provideThreeDSRepo(db *gorm.DB) repositories.ThreeDSRepositoryInterface {
	return repositories.NewThreeDSRepository(db)
}

func provideThreeDSService(
	challenges repositories.ThreeDSRepositoryInterface,
	txns repositories.TransactionRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
	gateway services.PaymentGateway,
	checkoutMetrics *metrics.CheckoutMetrics,
	clock utils.Clock,
) services.ThreeDSecureService {
	cfg := services.ThreeDSConfig{
		ChallengeBaseURL: os.Getenv("THREEDS_CHALLENGE_BASE_URL"),
	}
	return services.NewThreeDSecureService(challenges, txns, orders, gateway, cfg, checkoutMetrics, clock)
}
