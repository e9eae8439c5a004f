package catalog_test

import (
	"context"
	"testing"

	"pricing-service/catalog"
	"pricing-service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EffectivePrices(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	ctx := context.Background()

	monitor, err := c.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "599.99", catalog.LineItem(monitor).UnitPrice.StringFixed(2), "discount price wins")

	cable, err := c.Product(ctx, "p9")
	require.NoError(t, err)
	assert.Nil(t, cable.DiscountPrice)
	assert.Equal(t, "20.00", catalog.LineItem(cable).UnitPrice.StringFixed(2), "falls back to list price")

	products, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 9)
	assert.Equal(t, "p1", products[0].ID)
}

func TestStaticCatalog_NotFound(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	_, err = c.Product(context.Background(), "nope")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestNewStaticCatalog_Validation(t *testing.T) {
	_, err := catalog.NewStaticCatalog([]models.Product{{Name: "no id", Price: decimal.NewFromInt(1)}})
	assert.Error(t, err)

	_, err = catalog.NewStaticCatalog([]models.Product{{ID: "x", Price: decimal.NewFromInt(-1)}})
	assert.Error(t, err)
}
