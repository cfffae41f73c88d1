package stripe

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/orderledger/internal/config"
)

// Module exposes the card provider adapter to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) *Client {
	return NewClient(Settings{
		SecretKey:     p.Config.StripeSecretKey,
		WebhookSecret: p.Config.StripeWebhookSecret,
		FrontendURL:   p.Config.FrontendURL,
		Currency:      p.Config.CheckoutCurrency,
	}, p.Logger)
}
