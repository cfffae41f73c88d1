package test

import (
	"github.com/polkiloo/orderledger/internal/domain/model"
	pkgAuth "github.com/polkiloo/orderledger/internal/pkg/auth"
)

// VerifierStub resolves bearer tokens to fixed identities.
type VerifierStub struct {
	Identities map[string]model.Identity
	VerifyFn   func(string) (model.Identity, error)
	NameVal    string
}

// VerifyToken returns the identity registered for token or ErrInvalidToken.
func (s VerifierStub) VerifyToken(token string) (model.Identity, error) {
	return s.Verify(token)
}

// Verify implements pkgAuth.Verifier.
func (s VerifierStub) Verify(token string) (model.Identity, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(token)
	}
	if id, ok := s.Identities[token]; ok {
		return id, nil
	}
	return model.Identity{}, pkgAuth.ErrInvalidToken
}

// Name returns the verifier identifier used in tests.
func (s VerifierStub) Name() string {
	if s.NameVal != "" {
		return s.NameVal
	}
	return "stub"
}

// Identity builds an identity from optional user id and email.
func Identity(userID, email string) model.Identity {
	return model.Identity{UserID: model.StringPtr(userID), Email: model.StringPtr(email)}
}

var _ pkgAuth.Verifier = VerifierStub{}
