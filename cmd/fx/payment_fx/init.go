package payment_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"shoply/internal/api/controllers"
	"shoply/internal/repositories"
	"shoply/internal/services"
	"shoply/pkg/events"
	"shoply/pkg/metrics"
	"shoply/pkg/utils"
)

var Module = fx.Provide(
	provideTransactionRepo, providePaymentMethodRepo, provideGateway,
	provideFeeConfig, providePaymentService, providePaymentController,
)

func provideTransactionRepo(db *gorm.DB) repositories.TransactionRepositoryInterface {
	return repositories.NewTransactionRepository(db)
}

func providePaymentMethodRepo(db *gorm.DB) repositories.PaymentMethodRepositoryInterface {
	return repositories.NewPaymentMethodRepository(db)
}

func provideGateway() services.PaymentGateway {
	return services.NewMockGateway()
}

func provideFeeConfig() services.FeeConfig {
	return services.DefaultFeeConfig()
}

func providePaymentService(
	txns repositories.TransactionRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
	methods repositories.PaymentMethodRepositoryInterface,
	gateway services.PaymentGateway,
	fees services.FeeConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	publisher *events.Publisher,
	clock utils.Clock,
) services.PaymentService {
	return services.NewPaymentService(txns, orders, methods, gateway, fees, checkoutMetrics, publisher, clock)
}

func providePaymentController(paymentService services.PaymentService, threeDSService services.ThreeDSecureService) *controllers.PaymentController {
	return controllers.NewPaymentController(paymentService, threeDSService)
}
