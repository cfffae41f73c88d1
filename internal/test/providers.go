package test

import (
	"context"
	"sync"

	"github.com/polkiloo/orderledger/internal/adapter/pesapal"
	"github.com/polkiloo/orderledger/internal/adapter/stripe"
	"github.com/polkiloo/orderledger/internal/domain/model"
)

// CardProviderStub simulates the hosted-checkout provider.
type CardProviderStub struct {
	CreateFn    func(context.Context, stripe.SessionRequest) (*model.ProviderSession, error)
	LineItemsFn func(context.Context, string) ([]model.ProviderLineItem, error)
	ParseFn     func([]byte, string) (*model.ProviderEvent, error)
	CurrencyVal string

	mu       sync.Mutex
	Requests []stripe.SessionRequest
	Lookups  []string
}

// CreateSession records the request and returns a deterministic session.
func (s *CardProviderStub) CreateSession(ctx context.Context, req stripe.SessionRequest) (*model.ProviderSession, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, req)
	}
	return &model.ProviderSession{SessionID: "cs_test_1", RedirectURL: "https://checkout.example.com/cs_test_1"}, nil
}

// ListLineItems records the lookup and delegates to LineItemsFn.
func (s *CardProviderStub) ListLineItems(ctx context.Context, sessionID string) ([]model.ProviderLineItem, error) {
	s.mu.Lock()
	s.Lookups = append(s.Lookups, sessionID)
	s.mu.Unlock()
	if s.LineItemsFn != nil {
		return s.LineItemsFn(ctx, sessionID)
	}
	return nil, nil
}

// ParseEvent delegates to ParseFn.
func (s *CardProviderStub) ParseEvent(payload []byte, signature string) (*model.ProviderEvent, error) {
	if s.ParseFn != nil {
		return s.ParseFn(payload, signature)
	}
	return &model.ProviderEvent{}, nil
}

// Currency returns CurrencyVal or usd.
func (s *CardProviderStub) Currency() string {
	if s.CurrencyVal != "" {
		return s.CurrencyVal
	}
	return "usd"
}

// LookupCount returns the number of line item lookups.
func (s *CardProviderStub) LookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Lookups)
}

// MobileMoneyStub simulates the mobile-money provider.
type MobileMoneyStub struct {
	SubmitFn func(context.Context, pesapal.OrderRequest) (*model.ProviderSession, error)
	StatusFn func(context.Context, string) (*model.MobileMoneyStatus, error)

	mu       sync.Mutex
	Requests []pesapal.OrderRequest
	Queries  []string
}

// SubmitOrder records the request and returns a deterministic tracking id.
func (s *MobileMoneyStub) SubmitOrder(ctx context.Context, req pesapal.OrderRequest) (*model.ProviderSession, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	if s.SubmitFn != nil {
		return s.SubmitFn(ctx, req)
	}
	return &model.ProviderSession{SessionID: "trk-1", RedirectURL: "https://pay.example.com/trk-1", MerchantReference: req.Reference}, nil
}

// TransactionStatus records the query and delegates to StatusFn.
func (s *MobileMoneyStub) TransactionStatus(ctx context.Context, trackingID string) (*model.MobileMoneyStatus, error) {
	s.mu.Lock()
	s.Queries = append(s.Queries, trackingID)
	s.mu.Unlock()
	if s.StatusFn != nil {
		return s.StatusFn(ctx, trackingID)
	}
	return &model.MobileMoneyStatus{TrackingID: trackingID}, nil
}

// QueryCount returns the number of status queries.
func (s *MobileMoneyStub) QueryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Queries)
}

var _ pesapal.Client = (*MobileMoneyStub)(nil)
