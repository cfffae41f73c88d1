package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/domain/repository"
)

// OrderQueryUseCase serves the caller's orders and guest-order claims.
type OrderQueryUseCase struct {
	orders repository.OrderRepository
	enrich *EnrichmentUseCase
}

// NewOrderQueryUseCase constructs OrderQueryUseCase.
func NewOrderQueryUseCase(orders repository.OrderRepository, enrich *EnrichmentUseCase) *OrderQueryUseCase {
	return &OrderQueryUseCase{orders: orders, enrich: enrich}
}

// List returns the caller's orders, newest first. With a session id only that
// order is returned, and only when the caller owns it.
func (u *OrderQueryUseCase) List(ctx context.Context, id model.Identity, sessionID string) ([]model.Order, error) {
	if id.Anonymous() {
		return nil, domainErrors.ErrUnauthorized
	}

	var orders []model.Order
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		order, err := u.orders.GetBySessionID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return []model.Order{}, nil
			}
			return nil, err
		}
		if !order.OwnedBy(id) {
			return []model.Order{}, nil
		}
		orders = []model.Order{*order}
	} else {
		list, err := u.orders.ListByOwner(ctx, id, 0)
		if err != nil {
			return nil, err
		}
		orders = list
	}

	if len(orders) == 0 {
		return []model.Order{}, nil
	}
	return u.enrich.Enrich(ctx, orders), nil
}

// Claim attaches guest orders placed with the caller's email to the caller's user id.
func (u *OrderQueryUseCase) Claim(ctx context.Context, id model.Identity) (int64, error) {
	if id.Anonymous() {
		return 0, domainErrors.ErrUnauthorized
	}
	if id.UserID == nil || id.Email == nil {
		return 0, fmt.Errorf("%w: claiming orders requires both user id and email", domainErrors.ErrValidation)
	}
	return u.orders.ClaimByEmail(ctx, *id.UserID, *id.Email)
}

// PendingMobileMoney locks and returns pending mobile-money rows created within ttl.
func (u *OrderQueryUseCase) PendingMobileMoney(ctx context.Context, ttl time.Duration, limit int) ([]model.Order, error) {
	return u.orders.SelectPendingForPolling(ctx, model.PaymentMethodMobileMoney, time.Now().Add(-ttl), limit)
}
