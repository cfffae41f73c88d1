package usecase

import (
	"context"

	"github.com/polkiloo/orderledger/internal/adapter/stripe"
	"github.com/polkiloo/orderledger/internal/domain/model"
)

// CardProvider is the hosted-checkout provider used for card payments.
type CardProvider interface {
	CreateSession(ctx context.Context, req stripe.SessionRequest) (*model.ProviderSession, error)
	ListLineItems(ctx context.Context, sessionID string) ([]model.ProviderLineItem, error)
	ParseEvent(payload []byte, signature string) (*model.ProviderEvent, error)
	Currency() string
}

var _ CardProvider = (*stripe.Client)(nil)

const (
	providerCard        = "stripe"
	providerMobileMoney = "pesapal"
)
