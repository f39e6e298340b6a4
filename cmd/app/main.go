package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"shoply/cmd/fx/cart_fx"
	"shoply/cmd/fx/catalog_fx"
	"shoply/cmd/fx/db_fx"
	"shoply/cmd/fx/events_fx"
	"shoply/cmd/fx/intent_fx"
	"shoply/cmd/fx/mail_fx"
	"shoply/cmd/fx/memcache_fx"
	"shoply/cmd/fx/metrics_fx"
	"shoply/cmd/fx/order_fx"
	"shoply/cmd/fx/payment_fx"
	"shoply/cmd/fx/pubsub_fx"
	"shoply/cmd/fx/threeds_fx"
	"shoply/internal/api/controllers"
	"shoply/internal/services"
	"shoply/pkg/metrics"
	"shoply/pkg/middleware"
	"shoply/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}

	app := fx.New(
		db_fx.Module,
		catalog_fx.Module,
		pubsub_fx.Module,
		memcache_fx.Module,
		metrics_fx.Module,
		events_fx.Module,
		mail_fx.Module,
		cart_fx.Module,
		payment_fx.Module,
		threeds_fx.Module,
		order_fx.Module,
		intent_fx.Module,

		fx.Provide(ProvideClock, ProvideSessionIDSource, ProvideRouter),
		fx.Invoke(StartServer),
		fx.Invoke(StartIntentSweeper),
	)

	app.Run()
}

func ProvideClock() utils.Clock {
	return time.Now
}

func ProvideSessionIDSource() middleware.SessionIDSource {
	return middleware.DefaultSessionIDSource
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := os.Getenv("PORT")
				if port == "" {
					port = "8080"
				}
				log.Println("Starting HTTP server on :" + port)
				if err := engine.Run(":" + port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

// StartIntentSweeper flips overdue pending intents to expired once a minute,
// so listings and counters converge even when nobody touches an intent again.
func StartIntentSweeper(lc fx.Lifecycle, intentService services.PurchaseIntentService) {
	ticker := time.NewTicker(time.Minute)
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				for {
					select {
					case <-ticker.C:
						if count, err := intentService.SweepExpired(context.Background()); err != nil {
							log.Printf("intent sweep failed: %v", err)
						} else if count > 0 {
							log.Printf("expired %d purchase intents", count)
						}
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ticker.Stop()
			close(done)
			return nil
		},
	})
}

func ProvideRouter(
	sessionIDs middleware.SessionIDSource,
	cartController *controllers.CartController,
	checkoutController *controllers.CheckoutController,
	paymentController *controllers.PaymentController,
) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.CallerMiddleware(sessionIDs))

	RegisterRoutes(r, cartController, checkoutController, paymentController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	cartController *controllers.CartController,
	checkoutController *controllers.CheckoutController,
	paymentController *controllers.PaymentController) {

	cartGroup := r.Group("/cart")
	cartGroup.GET("", cartController.GetCart)
	cartGroup.DELETE("", cartController.Clear)
	cartGroup.GET("/events", cartController.StreamEvents)
	cartGroup.POST("/items", cartController.AddItem)
	cartGroup.PATCH("/items/:id", cartController.UpdateQuantity)
	cartGroup.DELETE("/items/:id", cartController.RemoveItem)
	cartGroup.POST("/items/:id/save-for-later", cartController.SaveForLater)
	cartGroup.POST("/items/:id/move-to-cart", cartController.MoveToCart)
	cartGroup.POST("/merge", middleware.RequireAuth(), cartController.MergeGuestCart)

	checkoutGroup := r.Group("/checkout")
	checkoutGroup.POST("/intents", checkoutController.CreateIntent)
	checkoutGroup.GET("/intents/:id", checkoutController.GetIntent)
	checkoutGroup.POST("/intents/:id/address", checkoutController.AttachAddress)
	checkoutGroup.POST("/intents/:id/complete", checkoutController.CompleteIntent)
	checkoutGroup.POST("/intents/:id/cancel", checkoutController.CancelIntent)
	checkoutGroup.GET("/redirect/:token", checkoutController.ResolveRedirectToken)
	checkoutGroup.POST("/cart", middleware.RequireAuth(), checkoutController.CheckoutCart)

	paymentGroup := r.Group("/payments")
	paymentGroup.POST("/process", middleware.RequireAuth(), paymentController.ProcessPayment)
	paymentGroup.POST("/authorize", middleware.RequireAuth(), paymentController.Authorize)
	paymentGroup.POST("/wallet", middleware.RequireAuth(), paymentController.WalletPay)
	paymentGroup.POST("/transactions/:id/capture", middleware.RequireAuth(), paymentController.Capture)
	paymentGroup.POST("/transactions/:id/refund", middleware.RequireAuth(), paymentController.Refund)
	paymentGroup.POST("/transactions/:id/three-d-secure", paymentController.StartThreeDSecure)
	paymentGroup.POST("/challenges/:id/complete", paymentController.CompleteThreeDSecure)

	orderGroup := r.Group("/orders")
	orderGroup.GET("/:id", checkoutController.GetOrder)
	orderGroup.POST("/:id/confirm-delivery", middleware.RequireStaff(), paymentController.ConfirmCashDelivery)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}
