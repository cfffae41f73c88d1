package errors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrConfiguration  = errors.New("misconfigured")
	ErrUpstream       = errors.New("upstream provider failed")
	ErrAuthenticity   = errors.New("authenticity check failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnknownPayment = errors.New("unknown payment method")
)
