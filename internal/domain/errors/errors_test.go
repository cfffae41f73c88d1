package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"not found", ErrNotFound},
		{"validation", ErrValidation},
		{"configuration", ErrConfiguration},
		{"upstream", ErrUpstream},
		{"authenticity", ErrAuthenticity},
		{"unauthorized", ErrUnauthorized},
		{"unknown payment", ErrUnknownPayment},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("%w: detail", tc.err)
			if !stdErrors.Is(wrapped, tc.err) {
				t.Fatalf("expected wrapped error to match sentinel: %v", tc.err)
			}
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{ErrNotFound, ErrValidation, ErrConfiguration, ErrUpstream, ErrAuthenticity, ErrUnauthorized, ErrUnknownPayment}
	for i, a := range all {
		for j, b := range all {
			if i != j && stdErrors.Is(a, b) {
				t.Fatalf("sentinel %v unexpectedly matches %v", a, b)
			}
		}
	}
}
