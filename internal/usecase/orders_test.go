package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/test"
)

func newOrderQuery(orders *test.OrderLedgerStub, card *test.CardProviderStub) *OrderQueryUseCase {
	return NewOrderQueryUseCase(orders, NewEnrichmentUseCase(card, orders, 10, nil, discardLogger()))
}

func TestOrderQueryListRequiresIdentity(t *testing.T) {
	uc := newOrderQuery(test.NewOrderLedgerStub(), &test.CardProviderStub{})
	if _, err := uc.List(context.Background(), model.Identity{}, ""); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestOrderQueryListByOwner(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := test.NewOrderLedgerStub(
		model.Order{SessionID: "cs_old", UserID: strPtr("u-1"), CreatedAt: base, Items: []model.LineItem{{Name: "A", Quantity: 1}}},
		model.Order{SessionID: "cs_new", Email: strPtr("buyer@example.com"), CreatedAt: base.Add(time.Hour), PaymentMethod: model.PaymentMethodCard},
		model.Order{SessionID: "cs_other", UserID: strPtr("u-2"), CreatedAt: base},
	)
	card := &test.CardProviderStub{LineItemsFn: beansLines}
	uc := newOrderQuery(orders, card)

	list, err := uc.List(context.Background(), model.Identity{UserID: strPtr("u-1"), Email: strPtr("Buyer@Example.com")}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].SessionID != "cs_new" || list[1].SessionID != "cs_old" {
		t.Fatalf("unexpected listing: %+v", list)
	}
	if len(list[0].Items) != 1 || list[0].Items[0].Name != "Beans" {
		t.Fatalf("expected empty row to be enriched: %+v", list[0].Items)
	}
}

func TestOrderQueryBySession(t *testing.T) {
	orders := test.NewOrderLedgerStub(
		model.Order{SessionID: "cs_1", UserID: strPtr("u-1"), Items: []model.LineItem{{Name: "A", Quantity: 1}}},
	)
	uc := newOrderQuery(orders, &test.CardProviderStub{})

	list, err := uc.List(context.Background(), model.Identity{UserID: strPtr("u-1")}, " cs_1 ")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected owned order, got %v %v", list, err)
	}

	list, err = uc.List(context.Background(), model.Identity{UserID: strPtr("u-2")}, "cs_1")
	if err != nil || len(list) != 0 || list == nil {
		t.Fatalf("foreign order must not leak, got %v %v", list, err)
	}

	list, err = uc.List(context.Background(), model.Identity{UserID: strPtr("u-1")}, "cs_missing")
	if err != nil || len(list) != 0 {
		t.Fatalf("missing order should yield empty list, got %v %v", list, err)
	}

	orders.GetFn = func(context.Context, string) (*model.Order, error) { return nil, errors.New("db down") }
	if _, err := uc.List(context.Background(), model.Identity{UserID: strPtr("u-1")}, "cs_1"); err == nil {
		t.Fatal("expected storage error")
	}
}

func TestOrderQueryClaim(t *testing.T) {
	orders := test.NewOrderLedgerStub(
		model.Order{SessionID: "cs_1", Email: strPtr("buyer@example.com")},
		model.Order{SessionID: "cs_2", Email: strPtr("buyer@example.com"), UserID: strPtr("someone")},
		model.Order{SessionID: "cs_3", Email: strPtr("other@example.com")},
	)
	uc := newOrderQuery(orders, &test.CardProviderStub{})

	n, err := uc.Claim(context.Background(), model.Identity{UserID: strPtr("u-1"), Email: strPtr("Buyer@Example.com")})
	if err != nil || n != 1 {
		t.Fatalf("expected one claimed order, got %d %v", n, err)
	}
	row, _ := orders.Row("cs_1")
	if row.UserID == nil || *row.UserID != "u-1" {
		t.Fatalf("order not claimed: %+v", row)
	}

	if _, err := uc.Claim(context.Background(), model.Identity{}); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := uc.Claim(context.Background(), model.Identity{UserID: strPtr("u-1")}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderQueryPendingMobileMoney(t *testing.T) {
	var gotMethod model.PaymentMethod
	var gotAfter time.Time
	orders := test.NewOrderLedgerStub()
	orders.PendingFn = func(_ context.Context, method model.PaymentMethod, after time.Time, limit int) ([]model.Order, error) {
		gotMethod, gotAfter = method, after
		if limit != 5 {
			t.Fatalf("unexpected limit %d", limit)
		}
		return []model.Order{{SessionID: "trk-1"}}, nil
	}
	uc := newOrderQuery(orders, &test.CardProviderStub{})

	list, err := uc.PendingMobileMoney(context.Background(), time.Hour, 5)
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected result %v %v", list, err)
	}
	if gotMethod != model.PaymentMethodMobileMoney {
		t.Fatalf("unexpected method %s", gotMethod)
	}
	if d := time.Since(gotAfter); d < time.Hour || d > time.Hour+time.Minute {
		t.Fatalf("unexpected cutoff %v", gotAfter)
	}
}
