package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polkiloo/orderledger/internal/adapter/stripe"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/domain/repository"
	"github.com/polkiloo/orderledger/internal/metrics"
)

const enrichmentConcurrency = 4

// EnrichmentUseCase backfills missing line items from the card provider's
// record of a session. It is best effort: failures are logged and the row is
// returned unchanged.
type EnrichmentUseCase struct {
	card    CardProvider
	orders  repository.OrderRepository
	limit   int
	metrics *metrics.Ledger
	logger  *slog.Logger
}

// NewEnrichmentUseCase constructs EnrichmentUseCase. limit caps the number of
// rows enriched per call; zero disables enrichment.
func NewEnrichmentUseCase(card CardProvider, orders repository.OrderRepository, limit int, m *metrics.Ledger, logger *slog.Logger) *EnrichmentUseCase {
	if limit < 0 {
		limit = 0
	}
	return &EnrichmentUseCase{card: card, orders: orders, limit: limit, metrics: m, logger: logger}
}

// Enrich returns orders with items filled for at most limit card rows that
// have none. Rows beyond the cap are returned as-is.
func (u *EnrichmentUseCase) Enrich(ctx context.Context, orders []model.Order) []model.Order {
	out := make([]model.Order, len(orders))
	copy(out, orders)

	var candidates []int
	for i, o := range out {
		if !o.NeedsItems() || o.PaymentMethod == model.PaymentMethodMobileMoney {
			continue
		}
		if len(candidates) == u.limit {
			u.metrics.IncEnrichment(metrics.OutcomeSkipped)
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichmentConcurrency)
	for _, idx := range candidates {
		g.Go(func() error {
			if enriched, ok := u.enrichOne(gctx, out[idx]); ok {
				out[idx] = enriched
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (u *EnrichmentUseCase) enrichOne(ctx context.Context, order model.Order) (model.Order, bool) {
	start := time.Now()
	lines, err := u.card.ListLineItems(ctx, order.SessionID)
	u.metrics.ObserveProviderCall(providerCard, "list_line_items", start)
	if err != nil {
		u.logger.Warn("enrichment lookup failed",
			slog.String("session_id", order.SessionID),
			slog.String("error", err.Error()),
		)
		u.metrics.IncEnrichment(metrics.OutcomeFailed)
		return order, false
	}

	items := ProductItems(lines)
	if len(items) == 0 {
		u.metrics.IncEnrichment(metrics.OutcomeIgnored)
		return order, false
	}

	updated, err := u.orders.MergeOrder(ctx, model.OrderPatch{SessionID: order.SessionID, Items: items}, model.PolicyEnrichment)
	if err != nil {
		u.logger.Warn("enrichment write failed",
			slog.String("session_id", order.SessionID),
			slog.String("error", err.Error()),
		)
		u.metrics.IncEnrichment(metrics.OutcomeFailed)
		return order, false
	}
	u.metrics.IncEnrichment(metrics.OutcomeOK)
	return *updated, true
}

// ProductItems drops surcharge lines and rebuilds product line items.
func ProductItems(lines []model.ProviderLineItem) []model.LineItem {
	items := make([]model.LineItem, 0, len(lines))
	for _, li := range lines {
		name := strings.TrimSpace(li.Description)
		if name == "" || model.IsSurchargeName(name) {
			continue
		}
		qty := li.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, model.LineItem{
			Name:      name,
			Quantity:  qty,
			UnitPrice: stripe.UnitPrice(li),
			Image:     li.Image,
		})
	}
	return items
}
