package routes

import (
	"pricing-service/controllers"
	"pricing-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterCartRoutes sets up the per-user cart routes.
func RegisterCartRoutes(r *gin.Engine, cc *controllers.CartController, limiter *middleware.RateLimiter) {
	cartRoutes := r.Group("/cart")
	cartRoutes.Use(middleware.AuthMiddleware())
	if limiter != nil {
		cartRoutes.Use(middleware.RateLimit(limiter))
	}

	cartRoutes.GET("", cc.GetCart)
	cartRoutes.POST("/add", cc.AddItem)
	cartRoutes.PUT("/update", cc.UpdateQuantity)
	cartRoutes.DELETE("/remove/:product_id", cc.RemoveItem)
	cartRoutes.DELETE("/clear", cc.ClearCart)
	cartRoutes.POST("/coupon", cc.ApplyCoupon)
	cartRoutes.DELETE("/coupon", cc.RemoveCoupon)
	cartRoutes.POST("/checkout", cc.Checkout)
}

// RegisterCatalogRoutes sets up the public product and pricing routes.
func RegisterCatalogRoutes(r *gin.Engine, pc *controllers.ProductController, qc *controllers.PricingController, limiter *middleware.RateLimiter) {
	public := r.Group("")
	if limiter != nil {
		public.Use(middleware.RateLimit(limiter))
	}

	public.GET("/products", pc.ListProducts)
	public.GET("/products/:id", pc.GetProduct)
	public.POST("/pricing/quote", qc.Quote)
}
