package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/orderledger/internal/adapter/pesapal"
	"github.com/polkiloo/orderledger/internal/adapter/stripe"
	"github.com/polkiloo/orderledger/internal/config"
	"github.com/polkiloo/orderledger/internal/domain/repository"
	"github.com/polkiloo/orderledger/internal/metrics"
	"github.com/polkiloo/orderledger/internal/pricing"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		newPricingEngine,
		func(c *stripe.Client) CardProvider { return c },
		newCheckoutUseCase,
		NewReconcileUseCase,
		newEnrichmentUseCase,
		NewOrderQueryUseCase,
	),
)

func newPricingEngine(cfg *config.Config) *pricing.Engine {
	return pricing.NewEngine(cfg.DiscountCodes)
}

type checkoutParams struct {
	fx.In

	Engine  *pricing.Engine
	Card    CardProvider
	Mobile  pesapal.Client
	Orders  repository.OrderRepository
	Metrics *metrics.Ledger
	Logger  *slog.Logger
	Config  *config.Config
}

func newCheckoutUseCase(p checkoutParams) *CheckoutUseCase {
	return NewCheckoutUseCase(p.Engine, p.Card, p.Mobile, p.Orders, p.Metrics, p.Logger, CheckoutSettings{
		FrontendURL:         p.Config.FrontendURL,
		MobileMoneyCurrency: p.Config.PesapalCurrency,
	})
}

type enrichmentParams struct {
	fx.In

	Card    CardProvider
	Orders  repository.OrderRepository
	Metrics *metrics.Ledger
	Logger  *slog.Logger
	Config  *config.Config
}

func newEnrichmentUseCase(p enrichmentParams) *EnrichmentUseCase {
	return NewEnrichmentUseCase(p.Card, p.Orders, p.Config.EnrichmentLimit, p.Metrics, p.Logger)
}
