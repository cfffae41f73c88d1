package handlers

import (
	"context"

	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/server/http/middleware"
)

// CheckoutFacade opens payment sessions.
type CheckoutFacade interface {
	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error)
}

// WebhookFacade applies provider notifications to the ledger.
type WebhookFacade interface {
	HandleCardWebhook(ctx context.Context, payload []byte, signature string) (model.ReconcileResult, error)
	HandleMobileMoneyNotification(ctx context.Context, n model.MobileMoneyNotification) (*model.Order, error)
}

// OrderFacade encapsulates order reads and guest-order claims.
type OrderFacade interface {
	Orders(ctx context.Context, id model.Identity, sessionID string) ([]model.Order, error)
	ClaimOrders(ctx context.Context, id model.Identity) (int64, error)
}

// HealthFacade reports whether backing services are reachable.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	CheckoutFacade
	WebhookFacade
	OrderFacade
	HealthFacade
	middleware.TokenVerifier
}
