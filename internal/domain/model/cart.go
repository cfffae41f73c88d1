package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CartItem is a product line as submitted by the storefront.
type CartItem struct {
	Name     string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Image    string
}

// Cart is the normalized checkout input consumed by the pricing engine.
type Cart struct {
	Items          []CartItem
	Subtotal       *decimal.Decimal
	DiscountCode   string
	DiscountAmount decimal.Decimal
	Shipping       decimal.Decimal
	Tax            decimal.Decimal
	TipAmount      decimal.Decimal
	Total          *decimal.Decimal
	Location       string
}

// Surcharge line names as they appear on the provider session.
const (
	SurchargeTip      = "Tip (Support our Farmers)"
	SurchargeShipping = "Shipping"
	SurchargeTax      = "Tax"
)

// IsSurchargeName reports whether a provider line name denotes a synthetic surcharge.
func IsSurchargeName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == strings.ToLower(SurchargeShipping), n == strings.ToLower(SurchargeTax):
		return true
	case n == "tip", strings.HasPrefix(n, "tip ("):
		return true
	}
	return false
}

// PricedItem is a cart line after discounting.
type PricedItem struct {
	Name            string
	Quantity        int64
	UnitPrice       decimal.Decimal
	DiscountedPrice decimal.Decimal
	LineTotal       decimal.Decimal
	Image           string
}

// Surcharge is an independent non-negative charge appended after product lines.
type Surcharge struct {
	Name   string
	Amount decimal.Decimal
}

// Quote is the monetary breakdown produced by the pricing engine.
type Quote struct {
	Items          []PricedItem
	Surcharges     []Surcharge
	Subtotal       decimal.Decimal
	ClientSubtotal *decimal.Decimal
	DiscountCode   string
	DiscountAmount decimal.Decimal
	DiscountRatio  decimal.Decimal
	Shipping       decimal.Decimal
	Tax            decimal.Decimal
	Tip            decimal.Decimal
	Total          decimal.Decimal
	ClientTotal    *decimal.Decimal
	Location       string
}

// LineItems converts priced lines into ledger line items at their charged unit price.
func (q Quote) LineItems() []LineItem {
	items := make([]LineItem, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, LineItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.DiscountedPrice,
			Image:     it.Image,
		})
	}
	return items
}

// Breakdown returns the pricing snapshot persisted with the order.
func (q Quote) Breakdown() Breakdown {
	return Breakdown{
		Location:       q.Location,
		Subtotal:       q.Subtotal,
		Shipping:       q.Shipping,
		Tax:            q.Tax,
		DiscountCode:   q.DiscountCode,
		DiscountAmount: q.DiscountAmount,
		TipAmount:      q.Tip,
	}
}
