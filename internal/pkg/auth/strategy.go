package auth

import (
	"errors"
	"time"

	"github.com/polkiloo/orderledger/internal/domain/model"
)

var ErrInvalidToken = errors.New("invalid auth token")

// Verifier resolves a bearer token into the caller identity.
type Verifier interface {
	Verify(token string) (model.Identity, error)
	Name() string
}

// Options configures token verification.
type Options struct {
	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration
}
