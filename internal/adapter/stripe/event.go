package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/pricing"
)

const sessionObject = "checkout.session"

// Event types the reconciler acts on.
const (
	EventSessionCompleted          = string(stripeapi.EventTypeCheckoutSessionCompleted)
	EventSessionAsyncPaymentOK     = string(stripeapi.EventTypeCheckoutSessionAsyncPaymentSucceeded)
	EventSessionAsyncPaymentFailed = string(stripeapi.EventTypeCheckoutSessionAsyncPaymentFailed)
	EventSessionExpired            = string(stripeapi.EventTypeCheckoutSessionExpired)
)

// ParseEvent verifies the signature over the raw payload and reduces the event
// to settlement facts. Non-session events come back with an empty SessionID.
func (c *Client) ParseEvent(payload []byte, signature string) (*model.ProviderEvent, error) {
	if c.settings.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook signing secret is not set", domainErrors.ErrConfiguration)
	}
	if strings.TrimSpace(signature) == "" {
		return nil, fmt.Errorf("%w: signature header missing", domainErrors.ErrAuthenticity)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.settings.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrAuthenticity, err)
	}

	out := &model.ProviderEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var kind struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(event.Data.Raw, &kind); err != nil {
		return nil, fmt.Errorf("%w: decode event object: %v", domainErrors.ErrValidation, err)
	}
	out.ObjectKind = kind.Object
	if kind.Object != sessionObject {
		return out, nil
	}

	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", domainErrors.ErrValidation, err)
	}

	out.SessionID = session.ID
	out.PaymentStatus = string(session.PaymentStatus)
	out.Currency = strings.ToLower(string(session.Currency))
	out.Metadata = session.Metadata
	if session.AmountTotal > 0 || out.Currency != "" {
		total := pricing.FromCents(session.AmountTotal)
		out.AmountTotal = &total
	}
	out.Email = session.CustomerEmail
	if d := session.CustomerDetails; d != nil {
		if d.Email != "" {
			out.Email = d.Email
		}
		out.CustomerName = d.Name
	}
	return out, nil
}

// Paid reports whether a session payment status settles the order.
func Paid(paymentStatus string) bool {
	switch stripeapi.CheckoutSessionPaymentStatus(paymentStatus) {
	case stripeapi.CheckoutSessionPaymentStatusPaid, stripeapi.CheckoutSessionPaymentStatusNoPaymentRequired:
		return true
	}
	return false
}

// UnitPrice infers a line's unit price from the provider amounts.
func UnitPrice(li model.ProviderLineItem) decimal.Decimal {
	if li.UnitAmount > 0 {
		return pricing.FromCents(li.UnitAmount)
	}
	qty := li.Quantity
	if qty < 1 {
		qty = 1
	}
	return pricing.FromCents(li.AmountTotal).DivRound(decimal.NewFromInt(qty), 2)
}
