package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/orderledger/internal/adapter/pesapal"
	"github.com/polkiloo/orderledger/internal/adapter/stripe"
	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/domain/repository"
	"github.com/polkiloo/orderledger/internal/metrics"
	"github.com/polkiloo/orderledger/internal/pricing"
)

// CheckoutSettings holds the non-secret values the initiator needs.
type CheckoutSettings struct {
	FrontendURL         string
	MobileMoneyCurrency string
}

// CheckoutUseCase prices a cart, opens a provider session and records the
// pending order keyed by the provider's session identifier.
type CheckoutUseCase struct {
	pricing  *pricing.Engine
	card     CardProvider
	mobile   pesapal.Client
	orders   repository.OrderRepository
	metrics  *metrics.Ledger
	logger   *slog.Logger
	settings CheckoutSettings

	newReference func() string
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(
	engine *pricing.Engine,
	card CardProvider,
	mobile pesapal.Client,
	orders repository.OrderRepository,
	m *metrics.Ledger,
	logger *slog.Logger,
	settings CheckoutSettings,
) *CheckoutUseCase {
	settings.FrontendURL = strings.TrimRight(settings.FrontendURL, "/")
	if settings.MobileMoneyCurrency == "" {
		settings.MobileMoneyCurrency = "UGX"
	}
	return &CheckoutUseCase{
		pricing:      engine,
		card:         card,
		mobile:       mobile,
		orders:       orders,
		metrics:      m,
		logger:       logger,
		settings:     settings,
		newReference: uuid.NewString,
	}
}

type pendingWrite struct {
	provider string
	session  *model.ProviderSession
	currency string
}

// Start opens a payment session. A failed provider call leaves the ledger
// untouched; a failed ledger write after a successful provider call is logged
// and the redirect is still returned.
func (u *CheckoutUseCase) Start(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	quote, err := u.pricing.Quote(req.Cart)
	if err != nil {
		u.metrics.IncCheckout(providerName(req.PaymentMethod), metrics.OutcomeRejected)
		return nil, err
	}

	email := resolveEmail(req.Identity, req.Email)

	var write pendingWrite
	switch req.PaymentMethod {
	case "", model.PaymentMethodCard:
		write, err = u.startCard(ctx, quote, req.Identity, email)
	case model.PaymentMethodMobileMoney:
		write, err = u.startMobileMoney(ctx, quote, email)
	default:
		err = fmt.Errorf("%w: %q", domainErrors.ErrUnknownPayment, req.PaymentMethod)
	}
	if err != nil {
		u.metrics.IncCheckout(providerName(req.PaymentMethod), outcomeFor(err))
		return nil, err
	}

	method := model.PaymentMethodCard
	if write.provider == providerMobileMoney {
		method = model.PaymentMethodMobileMoney
	}
	breakdown := quote.Breakdown()
	total := quote.Total
	patch := model.OrderPatch{
		SessionID:     write.session.SessionID,
		PaymentMethod: method,
		Total:         &total,
		Currency:      write.currency,
		ClientTotal:   quote.ClientTotal,
		Email:         email,
		UserID:        req.Identity.UserID,
		Items:         quote.LineItems(),
		Breakdown:     &breakdown,
	}
	if ref := write.session.MerchantReference; ref != "" {
		patch.MerchantReference = &ref
	}

	if _, err := u.orders.MergeOrder(ctx, patch, model.PolicyCheckout); err != nil {
		u.logger.Error("record pending order failed",
			slog.String("session_id", write.session.SessionID),
			slog.String("provider", write.provider),
			slog.String("error", err.Error()),
		)
	}

	u.metrics.IncCheckout(write.provider, metrics.OutcomeOK)
	return &model.CheckoutResult{URL: write.session.RedirectURL, SessionID: write.session.SessionID}, nil
}

func (u *CheckoutUseCase) startCard(ctx context.Context, quote model.Quote, id model.Identity, email *string) (pendingWrite, error) {
	req := stripe.SessionRequest{
		Quote:    quote,
		Metadata: sessionMetadata(quote, id, email),
	}
	if email != nil {
		req.CustomerEmail = *email
	}

	start := time.Now()
	session, err := u.card.CreateSession(ctx, req)
	u.metrics.ObserveProviderCall(providerCard, "create_session", start)
	if err != nil {
		return pendingWrite{}, err
	}
	return pendingWrite{provider: providerCard, session: session, currency: u.card.Currency()}, nil
}

func (u *CheckoutUseCase) startMobileMoney(ctx context.Context, quote model.Quote, email *string) (pendingWrite, error) {
	reference := u.newReference()
	req := pesapal.OrderRequest{
		Reference:   reference,
		Amount:      quote.Total,
		Currency:    u.settings.MobileMoneyCurrency,
		Description: orderDescription(quote),
		CallbackURL: u.settings.FrontendURL + "/checkout/success?provider=pesapal",
	}
	if email != nil {
		req.Email = *email
	}

	start := time.Now()
	session, err := u.mobile.SubmitOrder(ctx, req)
	u.metrics.ObserveProviderCall(providerMobileMoney, "submit_order", start)
	if err != nil {
		return pendingWrite{}, err
	}
	if session.MerchantReference == "" {
		session.MerchantReference = reference
	}
	return pendingWrite{
		provider: providerMobileMoney,
		session:  session,
		currency: strings.ToLower(u.settings.MobileMoneyCurrency),
	}, nil
}

// resolveEmail prefers the verified identity over the client-supplied address.
func resolveEmail(id model.Identity, supplied string) *string {
	if id.Email != nil {
		if email := model.NormalizeEmail(*id.Email); email != "" {
			return &email
		}
	}
	if email := model.NormalizeEmail(supplied); email != "" {
		return &email
	}
	return nil
}

// sessionMetadata snapshots the breakdown on the provider session so a
// webhook arriving before the ledger write can still rebuild the row.
func sessionMetadata(q model.Quote, id model.Identity, email *string) map[string]string {
	md := map[string]string{
		"subtotal":       q.Subtotal.StringFixed(2),
		"discountAmount": q.DiscountAmount.StringFixed(2),
		"shipping":       q.Shipping.StringFixed(2),
		"tax":            q.Tax.StringFixed(2),
		"tipAmount":      q.Tip.StringFixed(2),
		"total":          q.Total.StringFixed(2),
	}
	if q.Location != "" {
		md["location"] = q.Location
	}
	if q.DiscountCode != "" {
		md["discountCode"] = q.DiscountCode
	}
	if q.ClientTotal != nil {
		md["clientTotal"] = q.ClientTotal.StringFixed(2)
	}
	if id.UserID != nil {
		md["userId"] = *id.UserID
	}
	if email != nil {
		md["email"] = *email
	}
	return md
}

func orderDescription(q model.Quote) string {
	names := make([]string, 0, len(q.Items))
	for _, it := range q.Items {
		names = append(names, it.Name)
	}
	return "Order: " + strings.Join(names, ", ")
}

func providerName(method model.PaymentMethod) string {
	if method == model.PaymentMethodMobileMoney {
		return providerMobileMoney
	}
	return providerCard
}

// breakdownFromMetadata rebuilds the pricing snapshot carried on a session.
func breakdownFromMetadata(md map[string]string) *model.Breakdown {
	if len(md) == 0 {
		return nil
	}
	return &model.Breakdown{
		Location:       md["location"],
		Subtotal:       metadataAmount(md, "subtotal"),
		Shipping:       metadataAmount(md, "shipping"),
		Tax:            metadataAmount(md, "tax"),
		DiscountCode:   md["discountCode"],
		DiscountAmount: metadataAmount(md, "discountAmount"),
		TipAmount:      metadataAmount(md, "tipAmount"),
	}
}

func metadataAmount(md map[string]string, key string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(md[key]))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}
