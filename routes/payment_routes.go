package routes

import (
	"github.com/Govind-619/RentSphere/controllers"
	"github.com/gin-gonic/gin"
)

// initPaymentRoutes initializes payment routes. Webhooks are authenticated by the
// provider signature instead of a login.
func initPaymentRoutes(router *gin.RouterGroup, auth gin.HandlerFunc, pc *controllers.PaymentController) {
	payments := router.Group("/payments")
	{
		payments.POST("/initiate", auth, pc.InitiatePayment)

		payments.POST("/webhook", pc.PaymentWebhook)
		payments.POST("/webhook/:provider", pc.PaymentWebhook)
	}
}
