// Package catalog supplies product prices to the cart. The storefront has no
// catalog backend, so the default provider serves a fixed product list.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"pricing-service/models"
)

// ErrProductNotFound is returned for unknown product ids.
var ErrProductNotFound = errors.New("product not found")

// Provider looks up products by id.
type Provider interface {
	Product(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

//go:embed products.json
var defaultProducts []byte

// StaticCatalog is an in-memory, read-only Provider.
type StaticCatalog struct {
	products map[string]models.Product
}

// NewStaticCatalog builds a catalog from products. Products without an id or
// with a negative price are rejected.
func NewStaticCatalog(products []models.Product) (*StaticCatalog, error) {
	m := make(map[string]models.Product, len(products))
	for _, p := range products {
		if p.ID == "" {
			return nil, errors.New("catalog: product without id")
		}
		if p.EffectivePrice().IsNegative() {
			return nil, fmt.Errorf("catalog: negative price for %s", p.ID)
		}
		m[p.ID] = p
	}
	return &StaticCatalog{products: m}, nil
}

// Default returns the built-in storefront catalog.
func Default() (*StaticCatalog, error) {
	var products []models.Product
	if err := json.Unmarshal(defaultProducts, &products); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}
	return NewStaticCatalog(products)
}

// Product implements Provider.
func (c *StaticCatalog) Product(_ context.Context, id string) (models.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return p, nil
}

// List implements Provider, ordered by id.
func (c *StaticCatalog) List(_ context.Context) ([]models.Product, error) {
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LineItem converts a product into a cart line using its effective price.
func LineItem(p models.Product) models.LineItem {
	return models.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.EffectivePrice(),
	}
}
