package repository

import "context"

// Factory describes access to domain repositories and the store behind them.
type Factory interface {
	Orders() OrderRepository
	HealthCheck(ctx context.Context) error
}
