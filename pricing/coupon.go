package pricing

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidCoupon is returned for empty codes and codes a policy rejects.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// CouponPolicy decides the raw discount for a non-empty code. Implementations
// wrap ErrInvalidCoupon when they reject a code.
type CouponPolicy interface {
	Discount(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error)
}

// Redeemer is implemented by policies that track coupon usage.
type Redeemer interface {
	Redeem(ctx context.Context, code string) error
}

// DemoPolicy accepts any non-empty code and discounts Rate of the subtotal,
// capped at Cap.
type DemoPolicy struct {
	Rate decimal.Decimal
	Cap  decimal.Decimal
}

// DefaultDemoPolicy is 10% off, at most 50.00.
func DefaultDemoPolicy() DemoPolicy {
	return DemoPolicy{
		Rate: decimal.RequireFromString("0.10"),
		Cap:  decimal.NewFromInt(50),
	}
}

// Discount implements CouponPolicy.
func (p DemoPolicy) Discount(_ context.Context, _ string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Min(subtotal.Mul(p.Rate), p.Cap).Round(2), nil
}

// CouponEvaluator validates a code and turns it into a discount amount.
type CouponEvaluator struct {
	policy CouponPolicy
}

// NewCouponEvaluator returns an evaluator backed by policy.
func NewCouponEvaluator(policy CouponPolicy) *CouponEvaluator {
	return &CouponEvaluator{policy: policy}
}

// Policy returns the underlying policy.
func (e *CouponEvaluator) Policy() CouponPolicy { return e.policy }

// Apply returns the discount for code against subtotal. Codes are
// case-sensitive and used as entered; whitespace-only codes are rejected.
// The result is always within [0, subtotal].
func (e *CouponEvaluator) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(code) == "" {
		return decimal.Zero, ErrInvalidCoupon
	}

	discount, err := e.policy.Discount(ctx, code, subtotal)
	if err != nil {
		return decimal.Zero, err
	}

	if discount.IsNegative() || subtotal.IsNegative() {
		return decimal.Zero, nil
	}
	return decimal.Min(discount, subtotal), nil
}

// Redeem records a use of code when the policy tracks usage.
func (e *CouponEvaluator) Redeem(ctx context.Context, code string) error {
	if r, ok := e.policy.(Redeemer); ok {
		return r.Redeem(ctx, code)
	}
	return nil
}
