package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes settlement lifecycle of a checkout attempt.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
	OrderStatusExpired OrderStatus = "expired"
)

// PaymentMethod discriminates the provider rail a session was created on.
type PaymentMethod string

const (
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
)

// LineItem is a genuine product line of an order.
type LineItem struct {
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Image     string          `json:"image,omitempty"`
}

// Breakdown is the pricing snapshot taken when the session was created.
type Breakdown struct {
	Location       string
	Subtotal       decimal.Decimal
	Shipping       decimal.Decimal
	Tax            decimal.Decimal
	DiscountCode   string
	DiscountAmount decimal.Decimal
	TipAmount      decimal.Decimal
}

// Order is one ledger row keyed by the provider session identifier.
type Order struct {
	SessionID         string
	PaymentMethod     PaymentMethod
	Status            OrderStatus
	Total             decimal.Decimal
	Currency          string
	ClientTotal       *decimal.Decimal
	Email             *string
	UserID            *string
	CustomerName      *string
	Items             []LineItem
	Breakdown         Breakdown
	MerchantReference *string
	IPNID             *string
	Error             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PaidAt            *time.Time
}

// NeedsItems reports whether the row has no line-item snapshot yet.
func (o Order) NeedsItems() bool {
	return len(o.Items) == 0
}

// OwnedBy reports whether identity may read the order.
func (o Order) OwnedBy(id Identity) bool {
	if id.UserID != nil && o.UserID != nil && *id.UserID == *o.UserID {
		return true
	}
	if id.Email != nil && o.Email != nil && NormalizeEmail(*id.Email) == NormalizeEmail(*o.Email) {
		return true
	}
	return false
}
