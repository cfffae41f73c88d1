package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// CheckoutItem is one cart line as posted by the storefront.
type CheckoutItem struct {
	Name     string `json:"name" validate:"required"`
	Price    Amount `json:"price"`
	Quantity Amount `json:"quantity"`
	Image    string `json:"image"`
}

// CheckoutRequest is the POST /checkout body. Several fields are accepted in
// both camelCase and snake_case; supplying both with different values is rejected.
type CheckoutRequest struct {
	Items          []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	Subtotal       Amount         `json:"subtotal"`
	DiscountCode   string         `json:"discountCode"`
	DiscountCodeS  string         `json:"discount_code"`
	DiscountAmount Amount         `json:"discountAmount"`
	DiscountAmtS   Amount         `json:"discount_amount"`
	Shipping       Amount         `json:"shipping"`
	Tax            Amount         `json:"tax"`
	TipAmount      Amount         `json:"tipAmount"`
	TipAmountS     Amount         `json:"tip_amount"`
	Total          Amount         `json:"total"`
	Location       string         `json:"location"`
	Email          string         `json:"email" validate:"omitempty,email"`
	PaymentMethod  string         `json:"paymentMethod" validate:"omitempty,oneof=card mobile_money"`
	PaymentMethodS string         `json:"payment_method" validate:"omitempty,oneof=card mobile_money"`
}

// ParseCheckout decodes and validates a checkout body. A body that is itself a
// JSON string holding the object is unwrapped once. Errors wrap ErrValidation.
func ParseCheckout(body []byte) (*CheckoutRequest, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", domainErrors.ErrValidation)
	}
	if body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return nil, fmt.Errorf("%w: invalid request body: %v", domainErrors.ErrValidation, err)
		}
		body = bytes.TrimSpace([]byte(inner))
	}

	var req CheckoutRequest
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %v", domainErrors.ErrValidation, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: invalid request body: trailing data", domainErrors.ErrValidation)
	}
	if err := validate.Struct(&req); err != nil {
		return nil, formatValidationErrors(err)
	}
	if err := req.checkAliases(); err != nil {
		return nil, err
	}
	for i, it := range req.Items {
		if !it.Price.Set {
			return nil, fmt.Errorf("%w: items[%d].price is required", domainErrors.ErrValidation, i)
		}
	}
	return &req, nil
}

func (r *CheckoutRequest) checkAliases() error {
	var conflicts []string
	if a, b := strings.TrimSpace(r.DiscountCode), strings.TrimSpace(r.DiscountCodeS); a != "" && b != "" && !strings.EqualFold(a, b) {
		conflicts = append(conflicts, "discountCode")
	}
	if amountsConflict(r.DiscountAmount, r.DiscountAmtS) {
		conflicts = append(conflicts, "discountAmount")
	}
	if amountsConflict(r.TipAmount, r.TipAmountS) {
		conflicts = append(conflicts, "tipAmount")
	}
	if r.PaymentMethod != "" && r.PaymentMethodS != "" && r.PaymentMethod != r.PaymentMethodS {
		conflicts = append(conflicts, "paymentMethod")
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("%w: conflicting values for %s", domainErrors.ErrValidation, strings.Join(conflicts, ", "))
	}
	return nil
}

func amountsConflict(a, b Amount) bool {
	return a.Set && b.Set && !a.Value.Equal(b.Value)
}

func firstAmount(a, b Amount) Amount {
	if a.Set {
		return a
	}
	return b
}

// Cart converts the request into the pricing input.
func (r *CheckoutRequest) Cart() model.Cart {
	items := make([]model.CartItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, model.CartItem{
			Name:     strings.TrimSpace(it.Name),
			Price:    it.Price.Value,
			Quantity: it.Quantity.Or(decimal.NewFromInt(1)),
			Image:    strings.TrimSpace(it.Image),
		})
	}
	return model.Cart{
		Items:          items,
		Subtotal:       r.Subtotal.Ptr(),
		DiscountCode:   firstOf(r.DiscountCode, r.DiscountCodeS),
		DiscountAmount: firstAmount(r.DiscountAmount, r.DiscountAmtS).Value,
		Shipping:       r.Shipping.Value,
		Tax:            r.Tax.Value,
		TipAmount:      firstAmount(r.TipAmount, r.TipAmountS).Value,
		Total:          r.Total.Ptr(),
		Location:       strings.TrimSpace(r.Location),
	}
}

// Method returns the requested payment rail, card by default.
func (r *CheckoutRequest) Method() model.PaymentMethod {
	if m := firstOf(r.PaymentMethod, r.PaymentMethodS); m != "" {
		return model.PaymentMethod(m)
	}
	return model.PaymentMethodCard
}

// CheckoutResponse is returned once a provider session exists.
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", domainErrors.ErrValidation, err)
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fe.Namespace()+" "+validationMessage(fe))
	}
	return fmt.Errorf("%w: %s", domainErrors.ErrValidation, strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}
