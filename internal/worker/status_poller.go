package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
)

// MobileMoneyFacade exposes the subset of application functionality required by the poller.
type MobileMoneyFacade interface {
	PendingMobileMoney(ctx context.Context, ttl time.Duration, limit int) ([]model.Order, error)
	RefreshMobileMoney(ctx context.Context, trackingID string) (*model.Order, error)
}

// StatusPoller periodically pulls the status of pending mobile-money orders
// and applies it to the ledger. The provider's IPN is the primary path; the
// poller catches missed or late callbacks.
type StatusPoller struct {
	facade       MobileMoneyFacade
	pollInterval time.Duration
	pendingTTL   time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewStatusPoller constructs the poller worker pool.
func NewStatusPoller(facade MobileMoneyFacade, pollInterval, pendingTTL time.Duration, batchSize, workers int, logger *slog.Logger) *StatusPoller {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &StatusPoller{
		facade:       facade,
		pollInterval: pollInterval,
		pendingTTL:   pendingTTL,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
	}
}

// Start launches background polling.
func (p *StatusPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *StatusPoller) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *StatusPoller) fetchAndDispatch(ctx context.Context) {
	orders, err := p.facade.PendingMobileMoney(ctx, p.pendingTTL, p.batchSize)
	if err != nil {
		p.logger.Error("fetch pending mobile money orders failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- order:
		}
	}
}

func (p *StatusPoller) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handleOrder(ctx, order)
		}
	}
}

func (p *StatusPoller) handleOrder(ctx context.Context, order model.Order) {
	updated, err := p.facade.RefreshMobileMoney(ctx, order.SessionID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrConfiguration) {
			p.logger.Warn("mobile money polling not configured", slog.String("tracking_id", order.SessionID))
			return
		}
		p.logger.Error("mobile money refresh failed", slog.String("tracking_id", order.SessionID), slog.String("error", err.Error()))
		return
	}
	if updated.Status != order.Status {
		p.logger.Info("mobile money order settled",
			slog.String("tracking_id", order.SessionID),
			slog.String("status", string(updated.Status)),
		)
	}
}
