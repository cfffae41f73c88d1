package model

import "github.com/shopspring/decimal"

// ProviderSession is the redirectable session returned by a payment provider.
type ProviderSession struct {
	SessionID         string
	RedirectURL       string
	MerchantReference string
}

// ProviderLineItem is one line of a provider session as reported back by the provider.
type ProviderLineItem struct {
	Description string
	Quantity    int64
	UnitAmount  int64
	AmountTotal int64
	Image       string
}

// ProviderEvent is a verified provider notification reduced to settlement facts.
type ProviderEvent struct {
	ID            string
	Type          string
	ObjectKind    string
	SessionID     string
	PaymentStatus string
	AmountTotal   *decimal.Decimal
	Currency      string
	Email         string
	CustomerName  string
	Metadata      map[string]string
}

// MobileMoneyStatus is the pulled transaction state of a mobile-money order.
type MobileMoneyStatus struct {
	TrackingID        string
	MerchantReference string
	StatusCode        int
	Description       string
	Amount            decimal.Decimal
	Currency          string
	ConfirmationCode  string
}

// Mobile-money transaction status codes.
const (
	MobileMoneyInvalid   = 0
	MobileMoneyCompleted = 1
	MobileMoneyFailed    = 2
	MobileMoneyReversed  = 3
)

// CheckoutResult is returned to the client after a session is initiated.
type CheckoutResult struct {
	URL       string
	SessionID string
}

// CheckoutRequest is a normalized checkout submission.
type CheckoutRequest struct {
	Cart          Cart
	Email         string
	PaymentMethod PaymentMethod
	Identity      Identity
}

// ReconcileResult describes what a notification did to the ledger.
// Ignored carries the event type when nothing was applied.
type ReconcileResult struct {
	Ignored string
	Order   *Order
}

// MobileMoneyNotification is an IPN callback from the mobile-money provider.
type MobileMoneyNotification struct {
	TrackingID        string
	NotificationType  string
	MerchantReference string
	IPNID             string
}
