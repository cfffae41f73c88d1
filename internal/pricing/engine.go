// Package pricing computes the monetary breakdown of a storefront cart.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
)

var hundred = decimal.NewFromInt(100)

// Input limits. Amounts are capped below what a single provider line accepts.
const maxExponent = 12

var (
	MaxAmount   = decimal.RequireFromString("999999.99")
	MaxQuantity = decimal.NewFromInt(10000)
)

// Engine prices carts against a server-side discount allow-list. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	codes map[string]struct{}
}

// NewEngine builds an engine accepting the given discount codes.
func NewEngine(codes []string) *Engine {
	allowed := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c = NormalizeCode(c); c != "" {
			allowed[c] = struct{}{}
		}
	}
	return &Engine{codes: allowed}
}

// NormalizeCode trims and uppercases a discount code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Allowed reports whether code is on the allow-list.
func (e *Engine) Allowed(code string) bool {
	_, ok := e.codes[NormalizeCode(code)]
	return ok
}

// Quote validates cart and returns its breakdown. Every intermediate value is
// rounded to two places, half away from zero.
func (e *Engine) Quote(cart model.Cart) (model.Quote, error) {
	if len(cart.Items) == 0 {
		return model.Quote{}, fmt.Errorf("%w: cart is empty", domainErrors.ErrValidation)
	}

	shipping, err := nonNegative("shipping", cart.Shipping)
	if err != nil {
		return model.Quote{}, err
	}
	tax, err := nonNegative("tax", cart.Tax)
	if err != nil {
		return model.Quote{}, err
	}
	tip, err := nonNegative("tipAmount", cart.TipAmount)
	if err != nil {
		return model.Quote{}, err
	}
	requested, err := nonNegative("discountAmount", cart.DiscountAmount)
	if err != nil {
		return model.Quote{}, err
	}

	items := make([]model.PricedItem, 0, len(cart.Items))
	subtotal := decimal.Zero
	for i, it := range cart.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return model.Quote{}, fmt.Errorf("%w: item %d has no name", domainErrors.ErrValidation, i)
		}
		if it.Price.IsNegative() {
			return model.Quote{}, fmt.Errorf("%w: item %q has a negative price", domainErrors.ErrValidation, name)
		}
		if it.Quantity.IsNegative() {
			return model.Quote{}, fmt.Errorf("%w: item %q has a negative quantity", domainErrors.ErrValidation, name)
		}
		if err := bounded(fmt.Sprintf("item %q price", name), it.Price, MaxAmount); err != nil {
			return model.Quote{}, err
		}
		if err := bounded(fmt.Sprintf("item %q quantity", name), it.Quantity, MaxQuantity); err != nil {
			return model.Quote{}, err
		}
		qty := it.Quantity.Floor().IntPart()
		if qty < 1 {
			qty = 1
		}
		unit := round(it.Price)
		items = append(items, model.PricedItem{
			Name:      name,
			Quantity:  qty,
			UnitPrice: unit,
			Image:     strings.TrimSpace(it.Image),
		})
		subtotal = round(subtotal.Add(round(unit.Mul(decimal.NewFromInt(qty)))))
	}

	code := NormalizeCode(cart.DiscountCode)
	discount := decimal.Zero
	if e.Allowed(code) {
		discount = decimal.Min(requested, subtotal)
	} else {
		code = ""
	}

	ratio := decimal.Zero
	if subtotal.IsPositive() {
		ratio = discount.DivRound(subtotal, 16)
	}
	keep := decimal.NewFromInt(1).Sub(ratio)

	itemsTotal := decimal.Zero
	for i := range items {
		discounted := round(items[i].UnitPrice.Mul(keep))
		items[i].DiscountedPrice = discounted
		items[i].LineTotal = round(discounted.Mul(decimal.NewFromInt(items[i].Quantity)))
		itemsTotal = round(itemsTotal.Add(items[i].LineTotal))
	}

	var surcharges []model.Surcharge
	for _, s := range []model.Surcharge{
		{Name: model.SurchargeTip, Amount: tip},
		{Name: model.SurchargeShipping, Amount: shipping},
		{Name: model.SurchargeTax, Amount: tax},
	} {
		if s.Amount.IsPositive() {
			surcharges = append(surcharges, s)
		}
	}

	q := model.Quote{
		Items:          items,
		Surcharges:     surcharges,
		Subtotal:       subtotal,
		DiscountCode:   code,
		DiscountAmount: discount,
		DiscountRatio:  ratio,
		Shipping:       shipping,
		Tax:            tax,
		Tip:            tip,
		Total:          round(itemsTotal.Add(shipping).Add(tax).Add(tip)),
		Location:       strings.TrimSpace(cart.Location),
	}
	if cart.Subtotal != nil && withinScale(*cart.Subtotal) {
		v := round(*cart.Subtotal)
		q.ClientSubtotal = &v
	}
	if cart.Total != nil && withinScale(*cart.Total) {
		v := round(*cart.Total)
		q.ClientTotal = &v
	}
	return q, nil
}

// ToCents converts an amount to non-negative integer minor units. Negative
// amounts clamp to zero; amounts that do not fit in int64 are rejected.
func ToCents(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, nil
	}
	if !withinScale(d) {
		return 0, fmt.Errorf("%w: amount out of range", domainErrors.ErrValidation)
	}
	c := d.Mul(hundred).Round(0).BigInt()
	if !c.IsInt64() {
		return 0, fmt.Errorf("%w: amount %s out of range", domainErrors.ErrValidation, d.String())
	}
	return c.Int64(), nil
}

// FromCents converts integer minor units back to a decimal amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func nonNegative(field string, d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s must not be negative", domainErrors.ErrValidation, field)
	}
	if err := bounded(field, d, MaxAmount); err != nil {
		return decimal.Zero, err
	}
	return round(d), nil
}

// withinScale reports whether d has a small exponent and coefficient.
// Rounding and comparison rescale to the exponent, so check this first.
func withinScale(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= -maxExponent && e <= maxExponent && d.Coefficient().BitLen() <= 128
}

func bounded(field string, d decimal.Decimal, limit decimal.Decimal) error {
	if !withinScale(d) || d.GreaterThan(limit) {
		return fmt.Errorf("%w: %s exceeds %s", domainErrors.ErrValidation, field, limit.String())
	}
	return nil
}
