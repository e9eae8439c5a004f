package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pricing-service/controllers"
	"pricing-service/models"
	"pricing-service/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock CartService ---

type mockCartService struct {
	lastUser     string
	lastProduct  string
	lastQuantity int
	lastCode     string
	lastKey      string
	err          *services.ServiceError
	checkoutResp *models.CheckoutResponse
}

func (m *mockCartService) view() (*models.CartView, *services.ServiceError) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.CartView{UserID: m.lastUser, Count: m.lastQuantity, Messages: []string{"ok"}}, nil
}

func (m *mockCartService) GetCart(_ context.Context, userID string) (*models.CartView, *services.ServiceError) {
	m.lastUser = userID
	return m.view()
}

func (m *mockCartService) AddItem(_ context.Context, userID, productID string, quantity int) (*models.CartView, *services.ServiceError) {
	m.lastUser, m.lastProduct, m.lastQuantity = userID, productID, quantity
	return m.view()
}

func (m *mockCartService) UpdateQuantity(_ context.Context, userID, productID string, quantity int) (*models.CartView, *services.ServiceError) {
	m.lastUser, m.lastProduct, m.lastQuantity = userID, productID, quantity
	return m.view()
}

func (m *mockCartService) RemoveItem(_ context.Context, userID, productID string) (*models.CartView, *services.ServiceError) {
	m.lastUser, m.lastProduct = userID, productID
	return m.view()
}

func (m *mockCartService) ClearCart(_ context.Context, userID string) (*models.CartView, *services.ServiceError) {
	m.lastUser = userID
	return m.view()
}

func (m *mockCartService) ApplyCoupon(_ context.Context, userID, code string) (*models.CartView, *services.ServiceError) {
	m.lastUser, m.lastCode = userID, code
	return m.view()
}

func (m *mockCartService) RemoveCoupon(_ context.Context, userID string) (*models.CartView, *services.ServiceError) {
	m.lastUser = userID
	return m.view()
}

func (m *mockCartService) Checkout(_ context.Context, userID, key string, _ *models.CheckoutRequest) (*models.CheckoutResponse, *services.ServiceError) {
	m.lastUser, m.lastKey = userID, key
	if m.err != nil {
		return nil, m.err
	}
	return m.checkoutResp, nil
}

// --- Helpers ---

func setupCartRouter(svc controllers.CartService, withUser bool) *gin.Engine {
	r := gin.New()
	cc := controllers.NewCartController(svc, zap.NewNop())

	if withUser {
		r.Use(func(c *gin.Context) {
			c.Set("userID", "user-test-id")
			c.Next()
		})
	}

	r.GET("/cart", cc.GetCart)
	r.POST("/cart/add", cc.AddItem)
	r.PUT("/cart/update", cc.UpdateQuantity)
	r.DELETE("/cart/remove/:product_id", cc.RemoveItem)
	r.DELETE("/cart/clear", cc.ClearCart)
	r.POST("/cart/coupon", cc.ApplyCoupon)
	r.DELETE("/cart/coupon", cc.RemoveCoupon)
	r.POST("/cart/checkout", cc.Checkout)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validCheckout() gin.H {
	return gin.H{
		"shipping": gin.H{
			"first_name": "Ada", "last_name": "Lovelace", "address": "1 Analytical St",
			"city": "London", "phone": "555-0100", "email": "ada@example.com",
		},
		"payment_method": "cash",
	}
}

// --- Tests ---

func TestCartController_Unauthorized(t *testing.T) {
	r := setupCartRouter(&mockCartService{}, false)

	w := doJSON(r, http.MethodGet, "/cart", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartController_GetCart(t *testing.T) {
	svc := &mockCartService{}
	r := setupCartRouter(svc, true)

	w := doJSON(r, http.MethodGet, "/cart", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-test-id", svc.lastUser)

	var resp struct {
		Cart models.CartView `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-test-id", resp.Cart.UserID)
	assert.Equal(t, []string{"ok"}, resp.Cart.Messages)
}

func TestCartController_AddItem(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		status   int
		quantity int
	}{
		{"default quantity", gin.H{"product_id": "p1"}, http.StatusOK, 1},
		{"explicit quantity", gin.H{"product_id": "p1", "quantity": 3}, http.StatusOK, 3},
		{"zero passes through", gin.H{"product_id": "p1", "quantity": 0}, http.StatusOK, 0},
		{"missing product", gin.H{"quantity": 2}, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCartService{}
			r := setupCartRouter(svc, true)

			w := doJSON(r, http.MethodPost, "/cart/add", tt.body, nil)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "p1", svc.lastProduct)
				assert.Equal(t, tt.quantity, svc.lastQuantity)
			}
		})
	}
}

func TestCartController_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    *services.ServiceError
		status int
	}{
		{"bad request", &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "quantity must be at least 1"}, http.StatusBadRequest},
		{"not found", &services.ServiceError{StatusCode: http.StatusNotFound, Message: "product not found"}, http.StatusNotFound},
		{"unavailable", &services.ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "cart storage unavailable"}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupCartRouter(&mockCartService{err: tt.err}, true)

			w := doJSON(r, http.MethodPut, "/cart/update", gin.H{"product_id": "p1", "quantity": 0}, nil)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Message, body["error"])
		})
	}
}

func TestCartController_RemoveAndClear(t *testing.T) {
	svc := &mockCartService{}
	r := setupCartRouter(svc, true)

	w := doJSON(r, http.MethodDelete, "/cart/remove/p7", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p7", svc.lastProduct)

	w = doJSON(r, http.MethodDelete, "/cart/clear", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartController_Coupon(t *testing.T) {
	svc := &mockCartService{}
	r := setupCartRouter(svc, true)

	w := doJSON(r, http.MethodPost, "/cart/coupon", gin.H{"code": "SAVE10"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SAVE10", svc.lastCode)

	w = doJSON(r, http.MethodDelete, "/cart/coupon", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartController_Checkout(t *testing.T) {
	svc := &mockCartService{checkoutResp: &models.CheckoutResponse{
		OrderID: "order-1",
		Pricing: models.PricingResult{Total: decimal.RequireFromString("549.99")},
		Message: "Order placed successfully!",
	}}
	r := setupCartRouter(svc, true)

	w := doJSON(r, http.MethodPost, "/cart/checkout", validCheckout(), map[string]string{"Idempotency-Key": "k1"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "k1", svc.lastKey)

	var resp models.CheckoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order-1", resp.OrderID)
	assert.Equal(t, "549.99", resp.Pricing.Total.StringFixed(2))

	svc.checkoutResp.Replayed = true
	w = doJSON(r, http.MethodPost, "/cart/checkout", validCheckout(), map[string]string{"Idempotency-Key": "k1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartController_Checkout_InvalidPayload(t *testing.T) {
	r := setupCartRouter(&mockCartService{}, true)

	bad := validCheckout()
	bad["payment_method"] = "bitcoin"
	w := doJSON(r, http.MethodPost, "/cart/checkout", bad, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	noEmail := validCheckout()
	noEmail["shipping"].(gin.H)["email"] = "not-an-email"
	w = doJSON(r, http.MethodPost, "/cart/checkout", noEmail, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
