package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/orderledger/internal/domain/model"
)

// OrderItemResponse is one line item of an order.
type OrderItemResponse struct {
	Name     string      `json:"name"`
	Quantity int64       `json:"quantity"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image,omitempty"`
}

// OrderResponse is the public view of a ledger row.
type OrderResponse struct {
	SessionID      string              `json:"sessionId"`
	PaymentMethod  string              `json:"paymentMethod"`
	Status         string              `json:"status"`
	Total          json.Number         `json:"total"`
	Currency       string              `json:"currency"`
	Email          *string             `json:"email"`
	UserID         *string             `json:"userId"`
	CustomerName   *string             `json:"customerName"`
	Items          []OrderItemResponse `json:"items"`
	Location       string              `json:"location"`
	Subtotal       json.Number         `json:"subtotal"`
	Shipping       json.Number         `json:"shipping"`
	Tax            json.Number         `json:"tax"`
	DiscountCode   string              `json:"discountCode"`
	DiscountAmount json.Number         `json:"discountAmount"`
	TipAmount      json.Number         `json:"tipAmount"`
	Error          *string             `json:"error"`
	CreatedAt      time.Time           `json:"createdAt"`
	PaidAt         *time.Time          `json:"paidAt"`
}

// OrdersResponse wraps GET /orders results.
type OrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

// ClaimResponse reports how many guest orders were attached.
type ClaimResponse struct {
	OK      bool  `json:"ok"`
	Claimed int64 `json:"claimed"`
}

// WebhookResponse acknowledges a provider notification.
type WebhookResponse struct {
	Received bool   `json:"received"`
	Ignored  string `json:"ignored,omitempty"`
}

// MobileMoneyAck is the acknowledgment shape the mobile-money provider expects.
type MobileMoneyAck struct {
	OrderNotificationType  string `json:"orderNotificationType"`
	OrderTrackingID        string `json:"orderTrackingId"`
	OrderMerchantReference string `json:"orderMerchantReference"`
	Status                 int    `json:"status"`
}

// ErrorResponse carries a client-facing failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewOrdersResponse maps ledger rows to their public view.
func NewOrdersResponse(orders []model.Order) OrdersResponse {
	out := OrdersResponse{Orders: make([]OrderResponse, 0, len(orders))}
	for _, o := range orders {
		out.Orders = append(out.Orders, NewOrderResponse(o))
	}
	return out
}

// NewOrderResponse maps one ledger row.
func NewOrderResponse(o model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    money(it.UnitPrice),
			Image:    it.Image,
		})
	}
	return OrderResponse{
		SessionID:      o.SessionID,
		PaymentMethod:  string(o.PaymentMethod),
		Status:         string(o.Status),
		Total:          money(o.Total),
		Currency:       o.Currency,
		Email:          o.Email,
		UserID:         o.UserID,
		CustomerName:   o.CustomerName,
		Items:          items,
		Location:       o.Breakdown.Location,
		Subtotal:       money(o.Breakdown.Subtotal),
		Shipping:       money(o.Breakdown.Shipping),
		Tax:            money(o.Breakdown.Tax),
		DiscountCode:   o.Breakdown.DiscountCode,
		DiscountAmount: money(o.Breakdown.DiscountAmount),
		TipAmount:      money(o.Breakdown.TipAmount),
		Error:          o.Error,
		CreatedAt:      o.CreatedAt,
		PaidAt:         o.PaidAt,
	}
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
