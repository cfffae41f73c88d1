package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/orderledger/internal/adapter/stripe"
	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
	pkgAuth "github.com/polkiloo/orderledger/internal/pkg/auth"
	"github.com/polkiloo/orderledger/internal/pricing"
	"github.com/polkiloo/orderledger/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/orderledger/internal/test"
	"github.com/polkiloo/orderledger/internal/usecase"
	"github.com/polkiloo/orderledger/internal/worker"
)

type facadeFixture struct {
	facade *StorefrontFacade
	ledger *testhelpers.OrderLedgerStub
	card   *testhelpers.CardProviderStub
	mobile *testhelpers.MobileMoneyStub
	store  *testhelpers.FactoryStub
}

func newFacade() *facadeFixture {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ledger := testhelpers.NewOrderLedgerStub()
	card := &testhelpers.CardProviderStub{}
	mobile := &testhelpers.MobileMoneyStub{}
	store := &testhelpers.FactoryStub{Ledger: ledger}
	verifier := testhelpers.VerifierStub{Identities: map[string]model.Identity{
		"token": testhelpers.Identity("u-1", "buyer@example.com"),
	}}

	checkout := usecase.NewCheckoutUseCase(pricing.NewEngine([]string{"UBUNTU88"}), card, mobile, ledger, nil, logger, usecase.CheckoutSettings{
		FrontendURL:         "https://shop.example.com",
		MobileMoneyCurrency: "UGX",
	})
	reconcile := usecase.NewReconcileUseCase(card, mobile, ledger, nil, logger)
	enrich := usecase.NewEnrichmentUseCase(card, ledger, 10, nil, logger)
	orders := usecase.NewOrderQueryUseCase(ledger, enrich)

	return &facadeFixture{
		facade: NewStorefrontFacade(checkout, reconcile, orders, store, verifier),
		ledger: ledger,
		card:   card,
		mobile: mobile,
		store:  store,
	}
}

func sampleCart() model.Cart {
	return model.Cart{
		Items:     []model.CartItem{{Name: "Beans", Price: decimal.NewFromInt(10), Quantity: decimal.NewFromInt(2)}},
		Shipping:  decimal.NewFromInt(5),
		TipAmount: decimal.NewFromInt(1),
		Location:  "Kampala",
	}
}

func TestStorefrontFacadeCardLifecycle(t *testing.T) {
	f := newFacade()
	ctx := context.Background()
	buyer := testhelpers.Identity("u-1", "buyer@example.com")

	res, err := f.facade.Checkout(ctx, model.CheckoutRequest{Cart: sampleCart(), Identity: buyer})
	if err != nil {
		t.Fatalf("checkout returned error: %v", err)
	}
	row, ok := f.ledger.Row(res.SessionID)
	if !ok || row.Status != model.OrderStatusPending || !row.Total.Equal(decimal.NewFromInt(26)) {
		t.Fatalf("unexpected pending row %+v", row)
	}

	total := decimal.NewFromInt(26)
	f.card.ParseFn = func([]byte, string) (*model.ProviderEvent, error) {
		return &model.ProviderEvent{
			ID:            "evt_1",
			Type:          stripe.EventSessionCompleted,
			SessionID:     res.SessionID,
			PaymentStatus: "paid",
			AmountTotal:   &total,
			Currency:      "usd",
			CustomerName:  "Amina",
		}, nil
	}
	outcome, err := f.facade.HandleCardWebhook(ctx, []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("webhook returned error: %v", err)
	}
	if outcome.Order == nil || outcome.Order.Status != model.OrderStatusPaid {
		t.Fatalf("expected paid order, got %+v", outcome)
	}

	orders, err := f.facade.Orders(ctx, buyer, res.SessionID)
	if err != nil {
		t.Fatalf("orders returned error: %v", err)
	}
	if len(orders) != 1 || orders[0].CustomerName == nil || *orders[0].CustomerName != "Amina" {
		t.Fatalf("unexpected orders %+v", orders)
	}

	stranger := testhelpers.Identity("u-2", "other@example.com")
	orders, err = f.facade.Orders(ctx, stranger, res.SessionID)
	if err != nil || len(orders) != 0 {
		t.Fatalf("expected no orders for stranger, got %v %v", orders, err)
	}
}

func TestStorefrontFacadeWebhookRejected(t *testing.T) {
	f := newFacade()
	f.card.ParseFn = func([]byte, string) (*model.ProviderEvent, error) {
		return nil, domainErrors.ErrAuthenticity
	}
	if _, err := f.facade.HandleCardWebhook(context.Background(), []byte(`{}`), "bad"); !errors.Is(err, domainErrors.ErrAuthenticity) {
		t.Fatalf("expected authenticity error, got %v", err)
	}
	if len(f.ledger.Merges()) != 0 {
		t.Fatal("rejected webhook must not touch the ledger")
	}
}

func TestStorefrontFacadeMobileMoney(t *testing.T) {
	f := newFacade()
	ctx := context.Background()
	f.mobile.StatusFn = func(_ context.Context, id string) (*model.MobileMoneyStatus, error) {
		return &model.MobileMoneyStatus{TrackingID: id, StatusCode: model.MobileMoneyCompleted}, nil
	}

	res, err := f.facade.Checkout(ctx, model.CheckoutRequest{Cart: sampleCart(), Email: "guest@example.com", PaymentMethod: model.PaymentMethodMobileMoney})
	if err != nil {
		t.Fatalf("checkout returned error: %v", err)
	}

	pending, err := f.facade.PendingMobileMoney(ctx, time.Hour, 10)
	if err != nil || len(pending) != 1 || pending[0].SessionID != res.SessionID {
		t.Fatalf("unexpected pending rows %v %v", pending, err)
	}

	order, err := f.facade.RefreshMobileMoney(ctx, res.SessionID)
	if err != nil || order.Status != model.OrderStatusPaid {
		t.Fatalf("unexpected refresh result %+v %v", order, err)
	}

	order, err = f.facade.HandleMobileMoneyNotification(ctx, model.MobileMoneyNotification{TrackingID: res.SessionID, IPNID: "ipn-9"})
	if err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if order.IPNID == nil || *order.IPNID != "ipn-9" || order.Status != model.OrderStatusPaid {
		t.Fatalf("unexpected order after notification %+v", order)
	}
	if f.mobile.QueryCount() != 2 {
		t.Fatalf("expected two status queries, got %d", f.mobile.QueryCount())
	}
}

func TestStorefrontFacadeClaim(t *testing.T) {
	f := newFacade()
	ctx := context.Background()
	if _, err := f.facade.Checkout(ctx, model.CheckoutRequest{Cart: sampleCart(), Email: "Buyer@Example.com"}); err != nil {
		t.Fatalf("checkout returned error: %v", err)
	}

	claimed, err := f.facade.ClaimOrders(ctx, testhelpers.Identity("u-1", "buyer@example.com"))
	if err != nil || claimed != 1 {
		t.Fatalf("expected one claimed order, got %d %v", claimed, err)
	}
	if _, err := f.facade.ClaimOrders(ctx, model.Identity{}); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestStorefrontFacadeHealthAndTokens(t *testing.T) {
	f := newFacade()
	if err := f.facade.Health(context.Background()); err != nil {
		t.Fatalf("unexpected health error: %v", err)
	}
	f.store.HealthErr = errors.New("db down")
	if err := f.facade.Health(context.Background()); err == nil {
		t.Fatal("expected health error")
	}

	id, err := f.facade.VerifyToken("token")
	if err != nil || id.UserID == nil || *id.UserID != "u-1" {
		t.Fatalf("unexpected identity %+v %v", id, err)
	}
	if _, err := f.facade.VerifyToken("nope"); !errors.Is(err, pkgAuth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

var (
	_ handlers.StorefrontFacade = (*StorefrontFacade)(nil)
	_ worker.MobileMoneyFacade  = (*StorefrontFacade)(nil)
)
