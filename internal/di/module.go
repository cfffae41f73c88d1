package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/orderledger/internal/adapter/pesapal"
	"github.com/polkiloo/orderledger/internal/adapter/stripe"
	"github.com/polkiloo/orderledger/internal/app"
	"github.com/polkiloo/orderledger/internal/config"
	"github.com/polkiloo/orderledger/internal/logger"
	"github.com/polkiloo/orderledger/internal/metrics"
	"github.com/polkiloo/orderledger/internal/pkg/auth"
	"github.com/polkiloo/orderledger/internal/server/http/router"
	"github.com/polkiloo/orderledger/internal/storage/postgres"
	"github.com/polkiloo/orderledger/internal/usecase"
)

// Module composes the application graph. Extra options are applied last so
// tests can replace infrastructure.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		stripe.Module,
		pesapal.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
