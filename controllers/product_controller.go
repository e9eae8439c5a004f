package controllers

import (
	"errors"
	"net/http"

	"pricing-service/catalog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductController serves the read-only catalog.
type ProductController struct {
	catalog catalog.Provider
	logger  *zap.Logger
}

// NewProductController creates a new ProductController.
func NewProductController(provider catalog.Provider, logger *zap.Logger) *ProductController {
	return &ProductController{catalog: provider, logger: logger}
}

// ListProducts handles GET /products.
func (pc *ProductController) ListProducts(ctx *gin.Context) {
	products, err := pc.catalog.List(ctx.Request.Context())
	if err != nil {
		pc.logger.Error("Failed to list products", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(ctx *gin.Context) {
	product, err := pc.catalog.Product(ctx.Request.Context(), ctx.Param("id"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		pc.logger.Error("Failed to get product", zap.String("id", ctx.Param("id")), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get product"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"product": product, "effective_price": product.EffectivePrice()})
}
