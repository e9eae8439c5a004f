package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pricing-service/cart"
	"pricing-service/catalog"
	"pricing-service/models"
	"pricing-service/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	couponApplied cart.NotificationType = "cart.coupon_applied"
	couponRemoved cart.NotificationType = "cart.coupon_removed"
)

// CartStore is the remote cart persistence mirrored by every mutation.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID string) error
	GetIdempotency(ctx context.Context, key string) (string, error)
	SetIdempotency(ctx context.Context, key, orderID string, ttl time.Duration) error
}

// EventPublisher receives committed cart notifications and checkouts.
type EventPublisher interface {
	PublishCartEvent(ctx context.Context, event models.CartEvent) error
	PublishCheckout(ctx context.Context, event models.CheckoutEvent) error
}

// CartOptions tunes session lifetime and the remote store circuit breaker.
type CartOptions struct {
	IdleTTL          time.Duration
	IdempotencyTTL   time.Duration
	BreakerFailures  uint32
	BreakerOpenDelay time.Duration
}

// DefaultCartOptions returns the production defaults.
func DefaultCartOptions() CartOptions {
	return CartOptions{
		IdleTTL:          30 * time.Minute,
		IdempotencyTTL:   24 * time.Hour,
		BreakerFailures:  5,
		BreakerOpenDelay: 15 * time.Second,
	}
}

// session is one user's cart. Its mutex gives the request exclusive access
// to the store for the whole mutate-persist-publish sequence.
type session struct {
	mu         sync.Mutex
	userID     string
	store      *cart.Store
	couponCode string
	pending    []cart.Notification
	lastSeen   time.Time
	evicted    bool
}

// CartService owns one session per user and keeps it in step with the
// remote store.
type CartService struct {
	store   CartStore
	catalog catalog.Provider
	calc    pricing.Calculator
	coupons *CouponService
	events  EventPublisher
	logger  *zap.Logger
	opts    CartOptions

	breaker *gobreaker.CircuitBreaker[struct{}]
	sfg     singleflight.Group

	mu       sync.Mutex
	sessions map[string]*session

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewCartService creates a CartService and starts its idle-session janitor.
// events may be nil, in which case notifications are not published and
// checkout is unavailable.
func NewCartService(
	store CartStore,
	provider catalog.Provider,
	calc pricing.Calculator,
	coupons *CouponService,
	events EventPublisher,
	logger *zap.Logger,
	opts CartOptions,
) *CartService {
	s := &CartService{
		store:    store,
		catalog:  provider,
		calc:     calc,
		coupons:  coupons,
		events:   events,
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "cart-store",
		MaxRequests: 1,
		Timeout:     opts.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	go s.janitor()
	return s
}

// Close stops the janitor. Sessions are already persisted remotely.
func (s *CartService) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// GetCart returns the priced cart for userID.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.CartView, *ServiceError) {
	var view *models.CartView
	err := s.withSession(ctx, userID, func(sess *session) error {
		view = s.view(ctx, sess, nil)
		return nil
	})
	if err != nil {
		return nil, toServiceError(err)
	}
	return view, nil
}

// AddItem adds quantity of productID, pricing it from the catalog.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.CartView, *ServiceError) {
	if quantity < 1 {
		return nil, toServiceError(cart.ErrInvalidQuantity)
	}
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, toServiceError(err)
	}

	return s.mutate(ctx, userID, func(sess *session) error {
		return sess.store.Add(catalog.LineItem(product), quantity)
	})
}

// UpdateQuantity sets the quantity of an item already in the cart. Updating
// an item that is not in the cart changes nothing.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*models.CartView, *ServiceError) {
	return s.mutate(ctx, userID, func(sess *session) error {
		err := sess.store.UpdateQuantity(productID, quantity)
		if errors.Is(err, cart.ErrItemNotFound) {
			s.logger.Debug("Update for item not in cart",
				zap.String("user_id", userID),
				zap.String("product_id", productID),
			)
			return nil
		}
		return err
	})
}

// RemoveItem deletes productID from the cart; absent items are ignored.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.CartView, *ServiceError) {
	return s.mutate(ctx, userID, func(sess *session) error {
		sess.store.Remove(productID)
		return nil
	})
}

// ClearCart removes every item and any applied coupon.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*models.CartView, *ServiceError) {
	return s.mutate(ctx, userID, func(sess *session) error {
		sess.store.Clear()
		sess.couponCode = ""
		return nil
	})
}

// ApplyCoupon validates code against the current subtotal and attaches it to
// the cart. The discount is recomputed on every later read.
func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (*models.CartView, *ServiceError) {
	var discount, subtotal decimal.Decimal
	view, svcErr := s.mutate(ctx, userID, func(sess *session) error {
		subtotal = sess.store.Total()
		d, err := s.coupons.Evaluate(ctx, code, subtotal)
		if err != nil {
			return err
		}
		discount = d
		sess.couponCode = code
		sess.pending = append(sess.pending, cart.Notification{
			Type:    couponApplied,
			Message: fmt.Sprintf("Coupon applied! You saved $%s", d.StringFixed(2)),
		})
		return nil
	})
	if svcErr != nil {
		return nil, svcErr
	}

	s.coupons.PublishApplied(ctx, userID, code, discount, subtotal)
	return view, nil
}

// RemoveCoupon detaches any coupon from the cart.
func (s *CartService) RemoveCoupon(ctx context.Context, userID string) (*models.CartView, *ServiceError) {
	return s.mutate(ctx, userID, func(sess *session) error {
		if sess.couponCode == "" {
			return nil
		}
		sess.couponCode = ""
		sess.pending = append(sess.pending, cart.Notification{Type: couponRemoved, Message: "Coupon removed"})
		return nil
	})
}

// Checkout publishes the priced cart as an order and clears it. A repeated
// idempotency key returns the original order id without placing a new order.
func (s *CartService) Checkout(ctx context.Context, userID, idempotencyKey string, req *models.CheckoutRequest) (*models.CheckoutResponse, *ServiceError) {
	if s.events == nil {
		return nil, toServiceError(ErrCheckoutUnavailable)
	}

	var resp *models.CheckoutResponse
	err := s.withSession(ctx, userID, func(sess *session) error {
		if idempotencyKey != "" {
			var orderID string
			err := s.remote(func() error {
				var err error
				orderID, err = s.store.GetIdempotency(ctx, scopedKey(userID, idempotencyKey))
				return err
			})
			if err != nil {
				return err
			}
			if orderID != "" {
				resp = &models.CheckoutResponse{OrderID: orderID, Replayed: true, Message: "Order already placed"}
				return nil
			}
		}

		if sess.store.Len() == 0 {
			return ErrEmptyCart
		}

		items := sess.store.Items()
		pricingResult, err := s.priceStrict(ctx, items, sess.couponCode)
		if err != nil {
			return err
		}
		orderID := uuid.NewString()
		event := models.CheckoutEvent{
			Event:      "checkout.requested",
			OrderID:    orderID,
			UserID:     userID,
			Items:      items,
			CouponCode: sess.couponCode,
			Pricing:    pricingResult,
			Shipping:   req.Shipping,
			Payment:    req.PaymentMethod,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.events.PublishCheckout(ctx, event); err != nil {
			s.logger.Error("Failed to publish checkout event",
				zap.String("user_id", userID),
				zap.String("order_id", orderID),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}

		// The coupon is redeemed only for a published order.
		if sess.couponCode != "" {
			if err := s.coupons.Redeem(ctx, sess.couponCode); err != nil {
				s.logger.Error("Failed to redeem coupon for placed order",
					zap.String("order_id", orderID),
					zap.String("code", sess.couponCode),
					zap.Error(err),
				)
			}
		}

		if idempotencyKey != "" {
			err := s.remote(func() error {
				return s.store.SetIdempotency(ctx, scopedKey(userID, idempotencyKey), orderID, s.opts.IdempotencyTTL)
			})
			if err != nil {
				s.logger.Warn("Failed to record checkout idempotency key", zap.String("order_id", orderID), zap.Error(err))
			}
		}

		// The order is placed; a failed clear is logged and leaves the cart as the remote store has it.
		if _, err := s.commit(ctx, sess, func() error {
			sess.store.Clear()
			sess.couponCode = ""
			return nil
		}); err != nil {
			s.logger.Error("Failed to clear cart after checkout", zap.String("order_id", orderID), zap.Error(err))
		}

		s.logger.Info("Checkout requested",
			zap.String("user_id", userID),
			zap.String("order_id", orderID),
			zap.String("total", pricingResult.Total.StringFixed(2)),
		)
		resp = &models.CheckoutResponse{OrderID: orderID, Pricing: pricingResult, Message: "Order placed successfully!"}
		return nil
	})
	if err != nil {
		return nil, toServiceError(err)
	}
	return resp, nil
}

// mutate runs fn as a transaction against the user's session.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(*session) error) (*models.CartView, *ServiceError) {
	var view *models.CartView
	err := s.withSession(ctx, userID, func(sess *session) error {
		committed, err := s.commit(ctx, sess, func() error { return fn(sess) })
		if err != nil {
			return err
		}
		view = s.view(ctx, sess, committed)
		return nil
	})
	if err != nil {
		return nil, toServiceError(err)
	}
	return view, nil
}

// commit applies fn locally, mirrors the result to the remote store and
// publishes the resulting notifications. If fn or the remote write fails the
// local state is restored and nothing is published. Caller holds sess.mu.
func (s *CartService) commit(ctx context.Context, sess *session, fn func() error) ([]cart.Notification, error) {
	snapshot := sess.store.Snapshot()
	coupon := sess.couponCode
	sess.pending = nil

	rollback := func() {
		sess.store.Restore(snapshot)
		sess.couponCode = coupon
		sess.pending = nil
	}

	if err := fn(); err != nil {
		rollback()
		return nil, err
	}
	if len(sess.pending) == 0 && sess.couponCode == coupon {
		return nil, nil
	}

	if err := s.persist(ctx, sess); err != nil {
		rollback()
		s.logger.Error("Cart mutation rolled back",
			zap.String("user_id", sess.userID),
			zap.Error(err),
		)
		return nil, err
	}

	committed := sess.pending
	sess.pending = nil
	s.publish(ctx, sess.userID, committed)
	return committed, nil
}

func (s *CartService) persist(ctx context.Context, sess *session) error {
	if sess.store.Len() == 0 && sess.couponCode == "" {
		return s.remote(func() error { return s.store.DeleteCart(ctx, sess.userID) })
	}
	snapshot := &models.Cart{
		UserID:     sess.userID,
		Items:      sess.store.Items(),
		CouponCode: sess.couponCode,
	}
	return s.remote(func() error { return s.store.SaveCart(ctx, snapshot) })
}

func (s *CartService) publish(ctx context.Context, userID string, notifications []cart.Notification) {
	if s.events == nil || len(notifications) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	for _, n := range notifications {
		event := models.CartEvent{
			Event:     string(n.Type),
			UserID:    userID,
			ProductID: n.ProductID,
			Quantity:  n.Quantity,
			Message:   n.Message,
			Timestamp: time.Now().UTC(),
		}
		if err := s.events.PublishCartEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish cart event",
				zap.String("user_id", userID),
				zap.String("event", event.Event),
				zap.Error(err),
			)
		}
	}
}

// remote runs a remote store call through the circuit breaker.
func (s *CartService) remote(fn func() error) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// view prices the session's cart. Coupon problems never fail the read: the
// discount drops to zero and the reason is reported alongside.
func (s *CartService) view(ctx context.Context, sess *session, committed []cart.Notification) *models.CartView {
	items := sess.store.Items()
	v := &models.CartView{
		UserID:     sess.userID,
		Items:      items,
		Count:      sess.store.Count(),
		CouponCode: sess.couponCode,
	}

	discount := decimal.Zero
	if sess.couponCode != "" {
		d, err := s.coupons.Evaluate(ctx, sess.couponCode, pricing.Subtotal(items))
		switch {
		case err == nil:
			discount = d
		case errors.Is(err, pricing.ErrInvalidCoupon):
			v.CouponError = err.Error()
		default:
			s.logger.Warn("Coupon evaluation failed", zap.String("code", sess.couponCode), zap.Error(err))
			v.CouponError = "coupon could not be verified"
		}
	}
	v.Pricing = s.calc.ComputeTotal(items, discount)

	for _, n := range committed {
		v.Messages = append(v.Messages, n.Message)
	}
	return v
}

// priceStrict prices items and fails if an attached coupon no longer applies.
func (s *CartService) priceStrict(ctx context.Context, items []models.LineItem, code string) (models.PricingResult, error) {
	discount := decimal.Zero
	if code != "" {
		d, err := s.coupons.Evaluate(ctx, code, pricing.Subtotal(items))
		if err != nil {
			return models.PricingResult{}, err
		}
		discount = d
	}
	return s.calc.ComputeTotal(items, discount), nil
}

// withSession runs fn while holding exclusive access to the user's session.
func (s *CartService) withSession(ctx context.Context, userID string, fn func(*session) error) error {
	for {
		sess, err := s.acquire(ctx, userID)
		if err != nil {
			return err
		}
		sess.mu.Lock()
		if sess.evicted {
			sess.mu.Unlock()
			continue
		}
		sess.lastSeen = time.Now()
		err = fn(sess)
		sess.mu.Unlock()
		return err
	}
}

func (s *CartService) acquire(ctx context.Context, userID string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	// Only one load per user hits the remote store.
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		s.mu.Lock()
		if sess, ok := s.sessions[userID]; ok {
			s.mu.Unlock()
			return sess, nil
		}
		s.mu.Unlock()

		sess, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.sessions[userID] = sess
		s.mu.Unlock()
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*session), nil
}

func (s *CartService) load(ctx context.Context, userID string) (*session, error) {
	var stored *models.Cart
	err := s.remote(func() error {
		var err error
		stored, err = s.store.GetCart(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	sess := &session{userID: userID, store: cart.NewStore(), lastSeen: time.Now()}
	if stored != nil {
		restored, err := cart.FromItems(stored.Items)
		if err != nil {
			s.logger.Warn("Discarding unreadable stored cart", zap.String("user_id", userID), zap.Error(err))
		} else {
			sess.store = restored
			sess.couponCode = stored.CouponCode
		}
	}
	sess.store.Subscribe(func(n cart.Notification) {
		sess.pending = append(sess.pending, n)
	})
	return sess, nil
}

// janitor evicts sessions idle for longer than IdleTTL. Busy sessions are
// skipped and reconsidered on the next tick.
func (s *CartService) janitor() {
	defer close(s.done)
	if s.opts.IdleTTL <= 0 {
		<-s.stop
		return
	}

	ticker := time.NewTicker(max(s.opts.IdleTTL/2, time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictIdle(time.Now())
		}
	}
}

func (s *CartService) evictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if now.Sub(sess.lastSeen) > s.opts.IdleTTL {
			sess.evicted = true
			delete(s.sessions, id)
			evicted++
		}
		sess.mu.Unlock()
	}
	if evicted > 0 {
		s.logger.Debug("Evicted idle cart sessions", zap.Int("count", evicted))
	}
	return evicted
}

func scopedKey(userID, key string) string {
	return userID + ":" + key
}
