package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/orderledger/internal/config"
)

// Module provides identity verification via fx.
var Module = fx.Provide(newVerifier)

type verifierParams struct {
	fx.In

	Config *config.Config
}

func newVerifier(p verifierParams) Verifier {
	return NewJWTStrategy(p.Config.JWTSecret, Options{})
}
