package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the counters.
const (
	OutcomeOK       = "ok"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
)

// Ledger records checkout, reconciliation and enrichment activity.
type Ledger struct {
	checkouts   *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
	enrichments *prometheus.CounterVec
	provider    *prometheus.HistogramVec
}

// NewLedger registers the ledger metrics on the provided registerer.
func NewLedger(reg prometheus.Registerer) *Ledger {
	if reg == nil {
		return &Ledger{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderledger_checkouts_total",
		Help: "Checkout session initiations by provider and outcome.",
	}, []string{"provider", "outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderledger_notifications_total",
		Help: "Provider notifications by provider and outcome.",
	}, []string{"provider", "outcome"})
	enrichments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderledger_enrichments_total",
		Help: "Line-item enrichment attempts by outcome.",
	}, []string{"outcome"})
	provider := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderledger_provider_call_seconds",
		Help:    "Duration of outbound payment provider calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})
	reg.MustRegister(checkouts, webhooks, enrichments, provider)
	return &Ledger{
		checkouts:   checkouts,
		webhooks:    webhooks,
		enrichments: enrichments,
		provider:    provider,
	}
}

// IncCheckout counts one checkout initiation.
func (l *Ledger) IncCheckout(provider, outcome string) {
	if l == nil || l.checkouts == nil {
		return
	}
	l.checkouts.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// IncWebhook counts one provider notification.
func (l *Ledger) IncWebhook(provider, outcome string) {
	if l == nil || l.webhooks == nil {
		return
	}
	l.webhooks.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// IncEnrichment counts one enrichment attempt.
func (l *Ledger) IncEnrichment(outcome string) {
	if l == nil || l.enrichments == nil {
		return
	}
	l.enrichments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveProviderCall records the time elapsed since start.
func (l *Ledger) ObserveProviderCall(provider, operation string, start time.Time) {
	if l == nil || l.provider == nil {
		return
	}
	l.provider.WithLabelValues(normalizeLabel(provider), normalizeLabel(operation)).Observe(time.Since(start).Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
