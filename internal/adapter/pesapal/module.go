package pesapal

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/orderledger/internal/config"
)

// Module exposes the mobile-money client implementation to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.PesapalBaseURL, Credentials{
		ConsumerKey:    p.Config.PesapalConsumerKey,
		ConsumerSecret: p.Config.PesapalConsumerSecret,
		IPNID:          p.Config.PesapalIPNID,
	}, p.Logger)
}
