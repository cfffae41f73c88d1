package app

import (
	"context"
	"time"

	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/domain/repository"
	pkgAuth "github.com/polkiloo/orderledger/internal/pkg/auth"
	"github.com/polkiloo/orderledger/internal/usecase"
)

// StorefrontFacade exposes the use cases to the HTTP layer and the status poller.
type StorefrontFacade struct {
	checkout  *usecase.CheckoutUseCase
	reconcile *usecase.ReconcileUseCase
	orders    *usecase.OrderQueryUseCase
	store     repository.Factory
	verifier  pkgAuth.Verifier
}

func NewStorefrontFacade(checkout *usecase.CheckoutUseCase, reconcile *usecase.ReconcileUseCase, orders *usecase.OrderQueryUseCase, store repository.Factory, verifier pkgAuth.Verifier) *StorefrontFacade {
	return &StorefrontFacade{checkout: checkout, reconcile: reconcile, orders: orders, store: store, verifier: verifier}
}

func (f *StorefrontFacade) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	return f.checkout.Start(ctx, req)
}

func (f *StorefrontFacade) HandleCardWebhook(ctx context.Context, payload []byte, signature string) (model.ReconcileResult, error) {
	return f.reconcile.HandleCardEvent(ctx, payload, signature)
}

func (f *StorefrontFacade) HandleMobileMoneyNotification(ctx context.Context, n model.MobileMoneyNotification) (*model.Order, error) {
	return f.reconcile.HandleMobileMoneyNotification(ctx, n)
}

func (f *StorefrontFacade) Orders(ctx context.Context, id model.Identity, sessionID string) ([]model.Order, error) {
	return f.orders.List(ctx, id, sessionID)
}

func (f *StorefrontFacade) ClaimOrders(ctx context.Context, id model.Identity) (int64, error) {
	return f.orders.Claim(ctx, id)
}

func (f *StorefrontFacade) PendingMobileMoney(ctx context.Context, ttl time.Duration, limit int) ([]model.Order, error) {
	return f.orders.PendingMobileMoney(ctx, ttl, limit)
}

func (f *StorefrontFacade) RefreshMobileMoney(ctx context.Context, trackingID string) (*model.Order, error) {
	return f.reconcile.RefreshMobileMoney(ctx, trackingID, nil)
}

func (f *StorefrontFacade) Health(ctx context.Context) error {
	return f.store.HealthCheck(ctx)
}

func (f *StorefrontFacade) VerifyToken(token string) (model.Identity, error) {
	return f.verifier.Verify(token)
}
