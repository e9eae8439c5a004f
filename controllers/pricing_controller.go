package controllers

import (
	"context"
	"net/http"

	"pricing-service/models"
	"pricing-service/services"

	"github.com/gin-gonic/gin"
)

// QuoteService prices items without a cart session.
type QuoteService interface {
	Quote(ctx context.Context, req *models.QuoteRequest) (*models.PricingResult, *services.ServiceError)
}

// PricingController handles stateless price quotes.
type PricingController struct {
	quoteService QuoteService
}

// NewPricingController creates a new PricingController.
func NewPricingController(quoteService QuoteService) *PricingController {
	return &PricingController{quoteService: quoteService}
}

// Quote handles POST /pricing/quote.
func (pc *PricingController) Quote(ctx *gin.Context) {
	var req models.QuoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, svcErr := pc.quoteService.Quote(ctx.Request.Context(), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"pricing": result})
}
