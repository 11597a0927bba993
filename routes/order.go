package routes

import (
	orderControllers "github.com/ashkan-django/bookstore-api/controllers/order"
	paymentControllers "github.com/ashkan-django/bookstore-api/controllers/payment"
	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/gin-gonic/gin"
)

func SetupOrderRoutes(r *gin.Engine, s Services) {
	checkout := orderControllers.CheckoutConfig{
		Currency:   s.Config.PaymentCurrency,
		SuccessURL: s.Config.SuccessURL(),
		CancelURL:  s.Config.CancelURL(),
	}

	orders := r.Group("/orders", middleware.ValidateToken(s.Tokens))
	{
		orders.GET("", orderControllers.GetUserOrdersHandler(s.DB))
		orders.POST("", orderControllers.CreateOrderHandler(s.DB, s.Payments, checkout))
		orders.GET("/:id", orderControllers.GetOrderByIDHandler(s.DB))
	}
}

func SetupPaymentRoutes(r *gin.Engine, s Services) {
	payment := r.Group("/payment")
	{
		payment.GET("/completed", paymentControllers.Completed)
		payment.GET("/canceled", paymentControllers.Canceled)

		// Signature is checked before the handler sees the event.
		payment.POST("/webhook",
			middleware.StripeWebhookAuth(s.Config.StripeWebhookSecret),
			paymentControllers.StripeWebhookHandler(s.DB, s.Notifier),
		)
	}
}
