package services

import (
	"context"
	"fmt"
	"strings"

	"pricing-service/cart"
	"pricing-service/models"
	"pricing-service/pricing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteService prices caller-supplied items without touching any session.
type QuoteService struct {
	calc    pricing.Calculator
	coupons *CouponService
	logger  *zap.Logger
}

// NewQuoteService creates a QuoteService.
func NewQuoteService(calc pricing.Calculator, coupons *CouponService, logger *zap.Logger) *QuoteService {
	return &QuoteService{
		calc:    calc,
		coupons: coupons,
		logger:  logger,
	}
}

// Quote prices req. Repeated product ids accumulate as they would in a cart,
// but only when they agree on the unit price. An invalid coupon fails the
// quote instead of being silently dropped.
func (s *QuoteService) Quote(ctx context.Context, req *models.QuoteRequest) (*models.PricingResult, *ServiceError) {
	store := cart.NewStore()
	prices := make(map[string]decimal.Decimal, len(req.Items))
	for _, qi := range req.Items {
		if qi.UnitPrice == nil {
			return nil, toServiceError(fmt.Errorf("%w: missing unit price for %s", cart.ErrInvalidLineItem, qi.ProductID))
		}
		if seen, ok := prices[qi.ProductID]; ok && !seen.Equal(*qi.UnitPrice) {
			return nil, toServiceError(fmt.Errorf("%w: conflicting unit prices for %s", cart.ErrInvalidLineItem, qi.ProductID))
		}
		prices[qi.ProductID] = *qi.UnitPrice

		item := models.LineItem{ProductID: qi.ProductID, Name: qi.ProductID, UnitPrice: *qi.UnitPrice}
		if err := store.Add(item, qi.Quantity); err != nil {
			return nil, toServiceError(err)
		}
	}

	items := store.Items()
	discount := decimal.Zero
	if strings.TrimSpace(req.CouponCode) != "" {
		d, err := s.coupons.Evaluate(ctx, req.CouponCode, pricing.Subtotal(items))
		if err != nil {
			s.logger.Debug("Quote coupon rejected", zap.String("code", req.CouponCode), zap.Error(err))
			return nil, toServiceError(err)
		}
		discount = d
	}

	result := s.calc.ComputeTotal(items, discount)
	return &result, nil
}
