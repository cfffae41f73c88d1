package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/polkiloo/orderledger/internal/adapter/pesapal"
	"github.com/polkiloo/orderledger/internal/adapter/stripe"
	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/domain/repository"
	"github.com/polkiloo/orderledger/internal/metrics"
)

// Failure reasons recorded on the order row.
const (
	ReasonAsyncPaymentFailed = "async_payment_failed"
	ReasonSessionExpired     = "session_expired"
)

// ReconcileUseCase applies provider-reported settlement facts to the ledger.
type ReconcileUseCase struct {
	card    CardProvider
	mobile  pesapal.Client
	orders  repository.OrderRepository
	metrics *metrics.Ledger
	logger  *slog.Logger
	now     func() time.Time
}

// NewReconcileUseCase constructs ReconcileUseCase.
func NewReconcileUseCase(card CardProvider, mobile pesapal.Client, orders repository.OrderRepository, m *metrics.Ledger, logger *slog.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{card: card, mobile: mobile, orders: orders, metrics: m, logger: logger, now: time.Now}
}

// HandleCardEvent verifies and applies one signed card-provider notification.
// Verification failures never touch the ledger. Ledger failures are returned
// so the provider retries delivery.
func (u *ReconcileUseCase) HandleCardEvent(ctx context.Context, payload []byte, signature string) (model.ReconcileResult, error) {
	ev, err := u.card.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, domainErrors.ErrConfiguration) {
			u.logger.Error("webhook secret not configured", slog.String("error", err.Error()))
		} else {
			u.logger.Warn("webhook rejected", slog.String("error", err.Error()))
		}
		u.metrics.IncWebhook(providerCard, metrics.OutcomeRejected)
		return model.ReconcileResult{}, err
	}

	event, reason, ok := cardSettlement(ev)
	if !ok {
		u.logger.Info("webhook event ignored",
			slog.String("event_id", ev.ID),
			slog.String("type", ev.Type),
			slog.String("payment_status", ev.PaymentStatus),
		)
		u.metrics.IncWebhook(providerCard, metrics.OutcomeIgnored)
		return model.ReconcileResult{Ignored: ev.Type}, nil
	}

	now := u.now()
	patch := model.OrderPatch{
		SessionID:     ev.SessionID,
		PaymentMethod: model.PaymentMethodCard,
		OccurredAt:    &now,
		Total:         ev.AmountTotal,
		Currency:      ev.Currency,
		Email:         model.StringPtr(ev.Email),
		UserID:        model.StringPtr(ev.Metadata["userId"]),
		CustomerName:  model.StringPtr(ev.CustomerName),
		Breakdown:     breakdownFromMetadata(ev.Metadata),
	}
	if patch.Email == nil {
		patch.Email = model.StringPtr(ev.Metadata["email"])
	}
	patch = patch.WithEvent(event, reason)

	order, err := u.orders.MergeOrder(ctx, patch, model.PolicySettlement)
	if err != nil {
		u.logger.Error("apply settlement failed",
			slog.String("session_id", ev.SessionID),
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
		)
		u.metrics.IncWebhook(providerCard, metrics.OutcomeFailed)
		return model.ReconcileResult{}, err
	}

	u.logger.Info("settlement applied",
		slog.String("session_id", order.SessionID),
		slog.String("type", ev.Type),
		slog.String("status", string(order.Status)),
	)
	u.metrics.IncWebhook(providerCard, metrics.OutcomeOK)
	return model.ReconcileResult{Order: order}, nil
}

// cardSettlement maps a verified event to a ledger event. Non-session events,
// unknown types and completed-but-unpaid sessions are not applied.
func cardSettlement(ev *model.ProviderEvent) (model.SettlementEvent, string, bool) {
	if ev.SessionID == "" {
		return "", "", false
	}
	switch ev.Type {
	case stripe.EventSessionCompleted:
		if !stripe.Paid(ev.PaymentStatus) {
			return "", "", false
		}
		return model.EventCompleted, "", true
	case stripe.EventSessionAsyncPaymentOK:
		return model.EventAsyncSucceeded, "", true
	case stripe.EventSessionAsyncPaymentFailed:
		return model.EventAsyncFailed, ReasonAsyncPaymentFailed, true
	case stripe.EventSessionExpired:
		return model.EventExpired, ReasonSessionExpired, true
	}
	return "", "", false
}

// HandleMobileMoneyNotification pulls the status named by an IPN callback and
// applies it. Provider and ledger failures are returned so the callback is retried.
func (u *ReconcileUseCase) HandleMobileMoneyNotification(ctx context.Context, n model.MobileMoneyNotification) (*model.Order, error) {
	trackingID := strings.TrimSpace(n.TrackingID)
	if trackingID == "" {
		u.metrics.IncWebhook(providerMobileMoney, metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: order tracking id is required", domainErrors.ErrValidation)
	}

	order, err := u.RefreshMobileMoney(ctx, trackingID, model.StringPtr(n.IPNID))
	if err != nil {
		u.metrics.IncWebhook(providerMobileMoney, metrics.OutcomeFailed)
		return nil, err
	}
	u.metrics.IncWebhook(providerMobileMoney, metrics.OutcomeOK)
	return order, nil
}

// RefreshMobileMoney queries the provider for a tracked order and merges the result.
func (u *ReconcileUseCase) RefreshMobileMoney(ctx context.Context, trackingID string, ipnID *string) (*model.Order, error) {
	start := time.Now()
	status, err := u.mobile.TransactionStatus(ctx, trackingID)
	u.metrics.ObserveProviderCall(providerMobileMoney, "transaction_status", start)
	if err != nil {
		u.logger.Error("mobile money status query failed",
			slog.String("tracking_id", trackingID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return u.ApplyMobileMoneyStatus(ctx, status, ipnID)
}

// ApplyMobileMoneyStatus merges a pulled transaction status into the ledger.
// Invalid or unknown codes only record correlation identifiers.
func (u *ReconcileUseCase) ApplyMobileMoneyStatus(ctx context.Context, status *model.MobileMoneyStatus, ipnID *string) (*model.Order, error) {
	now := u.now()
	patch := model.OrderPatch{
		SessionID:         status.TrackingID,
		PaymentMethod:     model.PaymentMethodMobileMoney,
		OccurredAt:        &now,
		MerchantReference: model.StringPtr(status.MerchantReference),
		IPNID:             ipnID,
	}

	switch status.StatusCode {
	case model.MobileMoneyCompleted:
		patch = patch.WithEvent(model.EventCompleted, "")
	case model.MobileMoneyFailed, model.MobileMoneyReversed:
		patch = patch.WithEvent(model.EventAsyncFailed, mobileMoneyReason(status))
	}
	if patch.Event != nil && status.Amount.IsPositive() {
		amount := status.Amount
		patch.Total = &amount
		patch.Currency = status.Currency
	}

	order, err := u.orders.MergeOrder(ctx, patch, model.PolicySettlement)
	if err != nil {
		u.logger.Error("apply mobile money status failed",
			slog.String("tracking_id", status.TrackingID),
			slog.String("status", pesapal.StatusName(status.StatusCode)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	u.logger.Info("mobile money status applied",
		slog.String("tracking_id", status.TrackingID),
		slog.String("provider_status", pesapal.StatusName(status.StatusCode)),
		slog.String("status", string(order.Status)),
	)
	return order, nil
}

func mobileMoneyReason(status *model.MobileMoneyStatus) string {
	return "mobile_money_" + strings.ToLower(pesapal.StatusName(status.StatusCode))
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrValidation), errors.Is(err, domainErrors.ErrUnknownPayment):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
