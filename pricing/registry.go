package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pricing-service/models"
	"pricing-service/repository"

	"github.com/shopspring/decimal"
)

// RegistryPolicy looks codes up in the coupon registry instead of accepting
// any non-empty code.
type RegistryPolicy struct {
	repo repository.CouponRepository
	now  func() time.Time
}

// NewRegistryPolicy returns a policy backed by repo.
func NewRegistryPolicy(repo repository.CouponRepository) *RegistryPolicy {
	return &RegistryPolicy{repo: repo, now: time.Now}
}

// Discount implements CouponPolicy.
func (p *RegistryPolicy) Discount(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	coupon, err := p.repo.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrCouponNotFound) {
		return decimal.Zero, fmt.Errorf("%w: coupon not found or inactive", ErrInvalidCoupon)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("coupon lookup: %w", err)
	}

	if p.now().After(coupon.ExpiresAt) {
		return decimal.Zero, fmt.Errorf("%w: coupon has expired", ErrInvalidCoupon)
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return decimal.Zero, fmt.Errorf("%w: coupon usage limit reached", ErrInvalidCoupon)
	}
	if subtotal.LessThan(coupon.MinOrderValue) {
		return decimal.Zero, fmt.Errorf("%w: minimum order value of %s required",
			ErrInvalidCoupon, coupon.MinOrderValue.StringFixed(2))
	}

	var discount decimal.Decimal
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100))
	case models.CouponTypeFlat:
		discount = coupon.Value
	default:
		return decimal.Zero, fmt.Errorf("unknown coupon type %q", coupon.Type)
	}

	if coupon.MaxDiscount.IsPositive() {
		discount = decimal.Min(discount, coupon.MaxDiscount)
	}
	return discount.Round(2), nil
}

// Redeem implements Redeemer.
func (p *RegistryPolicy) Redeem(ctx context.Context, code string) error {
	if err := p.repo.IncrementUsedCount(ctx, code); err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return fmt.Errorf("%w: coupon no longer redeemable", ErrInvalidCoupon)
		}
		return fmt.Errorf("redeem coupon: %w", err)
	}
	return nil
}
