package services

import (
	"context"
	"encoding/json"
	"time"

	"pricing-service/models"
	aws_pkg "pricing-service/pkg/aws"
	"pricing-service/pricing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CouponService evaluates coupon codes and announces applied coupons.
type CouponService struct {
	evaluator   *pricing.CouponEvaluator
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

// NewCouponService creates a CouponService. snsClient may be nil.
func NewCouponService(
	evaluator *pricing.CouponEvaluator,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) *CouponService {
	return &CouponService{
		evaluator:   evaluator,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

// Evaluate returns the discount code grants against subtotal.
func (s *CouponService) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	return s.evaluator.Apply(ctx, code, subtotal)
}

// Redeem records a use of code where the policy tracks usage.
func (s *CouponService) Redeem(ctx context.Context, code string) error {
	return s.evaluator.Redeem(ctx, code)
}

// PublishApplied publishes a coupon_applied event to SNS. Failures are logged only.
func (s *CouponService) PublishApplied(ctx context.Context, userID, code string, discount, subtotal decimal.Decimal) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		s.logger.Debug("SNS client not configured, skipping coupon_applied event")
		return
	}

	event := models.CouponAppliedEvent{
		EventType:      "coupon_applied",
		UserID:         userID,
		CouponCode:     code,
		DiscountAmount: discount,
		CartSubtotal:   subtotal,
		Timestamp:      time.Now().UTC(),
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal coupon_applied event", zap.Error(err))
		return
	}

	if err := s.snsClient.Publish(ctx, s.snsTopicArn, eventBytes); err != nil {
		s.logger.Error("Failed to publish coupon_applied event", zap.Error(err))
		return
	}

	s.logger.Info("Published coupon_applied event",
		zap.String("coupon_code", code),
		zap.String("discount", discount.StringFixed(2)),
	)
}
