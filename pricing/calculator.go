// Package pricing turns line items and a discount into a checkout total.
package pricing

import (
	"pricing-service/models"

	"github.com/shopspring/decimal"
)

// ShippingRules configures the flat shipping fee and the free shipping threshold.
type ShippingRules struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingRate      decimal.Decimal
}

// DefaultShippingRules is free shipping above 100.00, otherwise 10.00.
func DefaultShippingRules() ShippingRules {
	return ShippingRules{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingRate:      decimal.NewFromInt(10),
	}
}

// Calculator is stateless; one value can be shared by every session.
type Calculator struct {
	rules ShippingRules
}

// NewCalculator returns a Calculator using rules.
func NewCalculator(rules ShippingRules) Calculator {
	return Calculator{rules: rules}
}

// Rules returns the shipping rules in effect.
func (c Calculator) Rules() ShippingRules { return c.rules }

// Shipping is free when subtotal is strictly above the threshold.
func (c Calculator) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(c.rules.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.rules.FlatShippingRate
}

// ComputeTotal prices items with the given discount. The total never goes
// below zero regardless of the discount passed in.
func (c Calculator) ComputeTotal(items []models.LineItem, discount decimal.Decimal) models.PricingResult {
	subtotal := Subtotal(items)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	shipping := c.Shipping(subtotal)

	total := subtotal.Sub(discount).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return models.PricingResult{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Total:    total,
	}
}

// Subtotal sums UnitPrice * Quantity over items.
func Subtotal(items []models.LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}
