package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/polkiloo/orderledger/internal/domain/model"
)

const defaultLeeway = 30 * time.Second

// JWTStrategy verifies HS256 identity tokens issued by the storefront's auth service.
type JWTStrategy struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTStrategy builds a verifier for the shared secret.
func NewJWTStrategy(secret string, opts Options) *JWTStrategy {
	leeway := opts.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	return &JWTStrategy{
		secret: []byte(strings.TrimSpace(secret)),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(leeway),
		),
	}
}

// Verify checks the signature and maps the sub (or id) and email claims.
// A token carrying neither yields ErrInvalidToken.
func (s *JWTStrategy) Verify(token string) (model.Identity, error) {
	if len(s.secret) == 0 {
		return model.Identity{}, fmt.Errorf("%w: verification secret is not set", ErrInvalidToken)
	}

	claims := jwt.MapClaims{}
	_, err := s.parser.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := model.Identity{
		UserID: model.StringPtr(claimString(claims, "sub")),
	}
	if id.UserID == nil {
		id.UserID = model.StringPtr(claimString(claims, "id"))
	}
	if email := model.NormalizeEmail(claimString(claims, "email")); email != "" {
		id.Email = &email
	}
	if id.Anonymous() {
		return model.Identity{}, fmt.Errorf("%w: no identity claims", ErrInvalidToken)
	}
	return id, nil
}

func (s *JWTStrategy) Name() string {
	return "jwt"
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}
