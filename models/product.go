package models

import "github.com/shopspring/decimal"

// Product is a catalog entry as supplied by the catalog provider.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Category      string           `json:"category"`
	SellerID      string           `json:"sellerId,omitempty"`
	Stock         int              `json:"stock"`
}

// EffectivePrice returns the discounted price when present, else the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}
