package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	maxAmountDigits   = 32
	maxAmountExponent = 12
)

// Amount is a monetary or count field that accepts a JSON number, a numeric
// string, an empty string or null. Set reports whether a value was supplied.
type Amount struct {
	Value decimal.Decimal
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*a = Amount{}
			return nil
		}
	}

	if len(raw) > maxAmountDigits {
		return fmt.Errorf("number %.16s... is too long", raw)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%q is not a number", raw)
	}
	if e := v.Exponent(); e > maxAmountExponent || e < -maxAmountExponent {
		return fmt.Errorf("%q is out of range", raw)
	}
	*a = Amount{Value: v, Set: true}
	return nil
}

// Ptr returns the value or nil when absent.
func (a Amount) Ptr() *decimal.Decimal {
	if !a.Set {
		return nil
	}
	v := a.Value
	return &v
}

// Or returns the value or def when absent.
func (a Amount) Or(def decimal.Decimal) decimal.Decimal {
	if !a.Set {
		return def
	}
	return a.Value
}
