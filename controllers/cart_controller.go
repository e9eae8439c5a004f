package controllers

import (
	"context"
	"net/http"

	"pricing-service/middleware"
	"pricing-service/models"
	"pricing-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CartService is the cart behaviour the HTTP layer depends on.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*models.CartView, *services.ServiceError)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*models.CartView, *services.ServiceError)
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*models.CartView, *services.ServiceError)
	RemoveItem(ctx context.Context, userID, productID string) (*models.CartView, *services.ServiceError)
	ClearCart(ctx context.Context, userID string) (*models.CartView, *services.ServiceError)
	ApplyCoupon(ctx context.Context, userID, code string) (*models.CartView, *services.ServiceError)
	RemoveCoupon(ctx context.Context, userID string) (*models.CartView, *services.ServiceError)
	Checkout(ctx context.Context, userID, idempotencyKey string, req *models.CheckoutRequest) (*models.CheckoutResponse, *services.ServiceError)
}

// CartController handles HTTP requests for the caller's cart.
type CartController struct {
	cartService CartService
	logger      *zap.Logger
}

// NewCartController creates a new CartController.
func NewCartController(cartService CartService, logger *zap.Logger) *CartController {
	return &CartController{cartService: cartService, logger: logger}
}

// GetCart handles GET /cart.
func (cc *CartController) GetCart(ctx *gin.Context) {
	userID, ok := cc.userID(ctx)
	if !ok {
		return
	}
	view, svcErr := cc.cartService.GetCart(ctx.Request.Context(), userID)
	cc.respond(ctx, view, svcErr)
}

// AddItem handles POST /cart/add. Quantity defaults to 1.
func (cc *CartController) AddItem(ctx *gin.Context) {
	userID, ok := cc.userID(ctx)
	if !ok {
		return
	}

	var req models.AddItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	view, svcErr := cc.cartService.AddItem(ctx.Request.Context(), userID, req.ProductID, quantity)
	cc.respond(ctx, view, svcErr)
}

// UpdateQuantity handles PUT /cart/update.
func (cc *CartController) UpdateQuantity(ctx *gin.Context) {
	userID, ok := cc.userID(ctx)
	if !ok {
		return
	}

	var req models.UpdateQuantityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	view, svcErr := cc.cartService.UpdateQuantity(ctx.Request.Context(), userID, req.ProductID, req.Quantity)
	cc.respond(ctx, view, svcErr)
}

// RemoveItem handles DELETE /cart/remove/:product_id.
func (cc *CartController) RemoveItem(ctx *gin.Context) {
	userID, ok := cc.userID(ctx)
	if !ok {
		return
	}
	productID := ctx.Param("product_id")
	if productID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	view, svcErr := cc.cartService.RemoveItem(ctx.Request.Context(), userID, productID)
	cc.respond(ctx, view, svcErr)
}

// ClearCart handles DELETE /cart/clear.
func (cc *CartController) ClearCart(ctx *gin.Context) {
	userID, ok := cc.userID(ctx)
	if !ok {
		return
	}
	view, svcErr := cc.cartService.ClearCart(ctx.Request.Context(), userID)
	cc.respond(ctx, view, svcErr)
}

// ApplyCoupon handles POST /cart/coupon.
func (cc *CartController) ApplyCoupon(ctx *gin.Context) {
	userID, ok := cc.userID(ctx)
	if !ok {
		return
	}

	var req models.ApplyCouponRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	view, svcErr := cc.cartService.ApplyCoupon(ctx.Request.Context(), userID, req.Code)
	cc.respond(ctx, view, svcErr)
}

// RemoveCoupon handles DELETE /cart/coupon.
func (cc *CartController) RemoveCoupon(ctx *gin.Context) {
	userID, ok := cc.userID(ctx)
	if !ok {
		return
	}
	view, svcErr := cc.cartService.RemoveCoupon(ctx.Request.Context(), userID)
	cc.respond(ctx, view, svcErr)
}

// Checkout handles POST /cart/checkout. An Idempotency-Key header makes
// retries return the original order.
func (cc *CartController) Checkout(ctx *gin.Context) {
	userID, ok := cc.userID(ctx)
	if !ok {
		return
	}

	var req models.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := cc.cartService.Checkout(ctx.Request.Context(), userID, ctx.GetHeader("Idempotency-Key"), &req)
	if svcErr != nil {
		cc.fail(ctx, svcErr)
		return
	}

	status := http.StatusAccepted
	if resp.Replayed {
		status = http.StatusOK
	}
	ctx.JSON(status, resp)
}

func (cc *CartController) userID(ctx *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

func (cc *CartController) respond(ctx *gin.Context, view *models.CartView, svcErr *services.ServiceError) {
	if svcErr != nil {
		cc.fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cart": view})
}

func (cc *CartController) fail(ctx *gin.Context, svcErr *services.ServiceError) {
	if svcErr.StatusCode >= http.StatusInternalServerError {
		cc.logger.Error("Cart request failed",
			zap.String("path", ctx.FullPath()),
			zap.Error(svcErr.Unwrap()),
		)
	}
	ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
}
