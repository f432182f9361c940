package routes

import (
	"net/http"

	"billing-service/controllers"
	"billing-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all billing routes.
func RegisterRoutes(r *gin.Engine, oc *controllers.OrderController, wc *controllers.WebhookController, cc *controllers.CouponController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Gateway callbacks authenticate by signature, not identity headers.
	r.POST("/webhooks/payment", wc.HandlePaymentWebhook)

	orderRoutes := r.Group("/orders")
	orderRoutes.Use(middleware.AuthMiddleware())
	orderRoutes.POST("", oc.CreateOrder)
	orderRoutes.GET("", oc.ListOrders)
	orderRoutes.GET("/:id", oc.GetOrder)
	orderRoutes.POST("/:id/cancel", oc.CancelOrder)

	adminRoutes := orderRoutes.Group("")
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.POST("/sweep", oc.SweepExpired)

	couponRoutes := r.Group("/coupons")
	couponRoutes.Use(middleware.AuthMiddleware())
	couponRoutes.GET("/active", cc.GetActiveCoupon)
}
