package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/orderledger/internal/domain/model"
)

// CheckoutFacadeStub provides controllable behaviour for the checkout endpoint.
type CheckoutFacadeStub struct {
	CheckoutFn func(context.Context, model.CheckoutRequest) (*model.CheckoutResult, error)
}

// Checkout delegates to CheckoutFn or returns a fixed session.
func (s CheckoutFacadeStub) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, req)
	}
	return &model.CheckoutResult{URL: "https://checkout.example.com/cs_test_1", SessionID: "cs_test_1"}, nil
}

// WebhookFacadeStub simulates provider notification handling.
type WebhookFacadeStub struct {
	CardFn        func(context.Context, []byte, string) (model.ReconcileResult, error)
	MobileMoneyFn func(context.Context, model.MobileMoneyNotification) (*model.Order, error)
}

// HandleCardWebhook delegates to CardFn or acknowledges the event.
func (s WebhookFacadeStub) HandleCardWebhook(ctx context.Context, payload []byte, signature string) (model.ReconcileResult, error) {
	if s.CardFn != nil {
		return s.CardFn(ctx, payload, signature)
	}
	return model.ReconcileResult{}, nil
}

// HandleMobileMoneyNotification delegates to MobileMoneyFn or returns a paid order.
func (s WebhookFacadeStub) HandleMobileMoneyNotification(ctx context.Context, n model.MobileMoneyNotification) (*model.Order, error) {
	if s.MobileMoneyFn != nil {
		return s.MobileMoneyFn(ctx, n)
	}
	return &model.Order{SessionID: n.TrackingID, Status: model.OrderStatusPaid}, nil
}

// OrderFacadeStub provides controllable behaviour for order reads and claims.
type OrderFacadeStub struct {
	OrdersFn func(context.Context, model.Identity, string) ([]model.Order, error)
	ClaimFn  func(context.Context, model.Identity) (int64, error)
}

// Orders returns predefined orders for the caller.
func (s OrderFacadeStub) Orders(ctx context.Context, id model.Identity, sessionID string) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, id, sessionID)
	}
	return []model.Order{{SessionID: "cs_test_1", Status: model.OrderStatusPaid, PaymentMethod: model.PaymentMethodCard}}, nil
}

// ClaimOrders returns the configured claim count.
func (s OrderFacadeStub) ClaimOrders(ctx context.Context, id model.Identity) (int64, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, id)
	}
	return 0, nil
}

// HealthFacadeStub reports a configurable health error.
type HealthFacadeStub struct {
	Err error
}

// Health returns Err.
func (s HealthFacadeStub) Health(context.Context) error {
	return s.Err
}

// StorefrontFacadeStub aggregates facade dependencies for HTTP layer tests.
type StorefrontFacadeStub struct {
	CheckoutFacadeStub
	WebhookFacadeStub
	OrderFacadeStub
	HealthFacadeStub
	VerifierStub
}

// PollerFacadeStub mimics the status poller's interactions with the storefront facade.
type PollerFacadeStub struct {
	Batches   [][]model.Order
	RefreshFn func(context.Context, string) (*model.Order, error)

	Refreshed []string
	TTL       time.Duration
	Limit     int

	mu        sync.Mutex
	callCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *PollerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *PollerFacadeStub) Unlock() { s.mu.Unlock() }

// PendingMobileMoney returns batches from the configured queue.
func (s *PollerFacadeStub) PendingMobileMoney(ctx context.Context, ttl time.Duration, limit int) ([]model.Order, error) {
	s.mu.Lock()
	s.TTL, s.Limit = ttl, limit
	s.mu.Unlock()

	call := atomic.AddInt32(&s.callCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// RefreshMobileMoney records the tracking id or delegates to RefreshFn.
func (s *PollerFacadeStub) RefreshMobileMoney(ctx context.Context, trackingID string) (*model.Order, error) {
	if s.RefreshFn != nil {
		return s.RefreshFn(ctx, trackingID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Refreshed = append(s.Refreshed, trackingID)
	return &model.Order{SessionID: trackingID, Status: model.OrderStatusPaid}, nil
}
