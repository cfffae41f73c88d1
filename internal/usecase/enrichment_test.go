package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/test"
)

func beansLines(context.Context, string) ([]model.ProviderLineItem, error) {
	return []model.ProviderLineItem{
		{Description: "Beans", Quantity: 2, UnitAmount: 900, AmountTotal: 1800, Image: "https://cdn.example.com/b.png"},
		{Description: model.SurchargeTip, Quantity: 1, UnitAmount: 100, AmountTotal: 100},
		{Description: "Shipping", Quantity: 1, UnitAmount: 500, AmountTotal: 500},
		{Description: "Tax", Quantity: 1, AmountTotal: 75},
	}, nil
}

func TestProductItemsFiltersSurcharges(t *testing.T) {
	lines, _ := beansLines(context.Background(), "")
	lines = append(lines,
		model.ProviderLineItem{Description: "Mug", Quantity: 3, AmountTotal: 1000},
		model.ProviderLineItem{Description: "  ", Quantity: 1, AmountTotal: 100},
	)
	items := ProductItems(lines)
	if len(items) != 2 {
		t.Fatalf("expected two product lines, got %+v", items)
	}
	if items[0].Name != "Beans" || items[0].Quantity != 2 || !items[0].UnitPrice.Equal(dec("9")) || items[0].Image == "" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Name != "Mug" || !items[1].UnitPrice.Equal(dec("3.33")) {
		t.Fatalf("unit price should be inferred from total, got %+v", items[1])
	}
}

func TestEnrichFillsEmptyItemsOnce(t *testing.T) {
	card := &test.CardProviderStub{LineItemsFn: beansLines}
	orders := test.NewOrderLedgerStub(model.Order{SessionID: "cs_1", PaymentMethod: model.PaymentMethodCard, Status: model.OrderStatusPaid})
	uc := NewEnrichmentUseCase(card, orders, 10, nil, discardLogger())

	row, _ := orders.Row("cs_1")
	out := uc.Enrich(context.Background(), []model.Order{row})
	if len(out[0].Items) != 1 || out[0].Items[0].Name != "Beans" {
		t.Fatalf("expected enriched items, got %+v", out[0].Items)
	}
	stored, _ := orders.Row("cs_1")
	if len(stored.Items) != 1 {
		t.Fatal("enriched items must be cached on the row")
	}
	if merges := orders.Merges(); len(merges) != 1 || merges[0].Policy != model.PolicyEnrichment {
		t.Fatalf("unexpected merges: %+v", merges)
	}

	uc.Enrich(context.Background(), []model.Order{stored})
	if card.LookupCount() != 1 {
		t.Fatalf("provider should be queried once per row, got %d", card.LookupCount())
	}
}

func TestEnrichNeverClobbersItems(t *testing.T) {
	card := &test.CardProviderStub{LineItemsFn: beansLines}
	latte := model.Order{
		SessionID:     "cs_1",
		PaymentMethod: model.PaymentMethodCard,
		Items:         []model.LineItem{{Name: "Latte", Quantity: 1, UnitPrice: dec("4")}},
	}
	orders := test.NewOrderLedgerStub(latte)
	uc := NewEnrichmentUseCase(card, orders, 10, nil, discardLogger())

	out := uc.Enrich(context.Background(), []model.Order{latte})
	if len(out[0].Items) != 1 || out[0].Items[0].Name != "Latte" {
		t.Fatalf("items clobbered: %+v", out[0].Items)
	}
	if card.LookupCount() != 0 {
		t.Fatal("rows with items must not be looked up")
	}

	// A concurrent writer filling items between read and write also wins.
	empty := model.Order{SessionID: "cs_1", PaymentMethod: model.PaymentMethodCard}
	out = uc.Enrich(context.Background(), []model.Order{empty})
	if out[0].Items[0].Name != "Latte" {
		t.Fatalf("enrichment overwrote stored items: %+v", out[0].Items)
	}
}

func TestEnrichIsBounded(t *testing.T) {
	card := &test.CardProviderStub{LineItemsFn: beansLines}
	var rows []model.Order
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		row := model.Order{SessionID: fmt.Sprintf("cs_%02d", i), PaymentMethod: model.PaymentMethodCard, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		rows = append(rows, row)
	}
	orders := test.NewOrderLedgerStub(rows...)
	uc := NewEnrichmentUseCase(card, orders, 10, nil, discardLogger())

	out := uc.Enrich(context.Background(), rows)
	if len(out) != 20 {
		t.Fatalf("expected every row returned, got %d", len(out))
	}
	enriched := 0
	for i, o := range out {
		if len(o.Items) > 0 {
			enriched++
			if i >= 10 {
				t.Fatalf("row %d beyond the cap was enriched", i)
			}
		}
	}
	if enriched != 10 || card.LookupCount() != 10 {
		t.Fatalf("expected 10 enriched rows and lookups, got %d/%d", enriched, card.LookupCount())
	}
}

func TestEnrichSwallowsFailures(t *testing.T) {
	card := &test.CardProviderStub{LineItemsFn: func(_ context.Context, id string) ([]model.ProviderLineItem, error) {
		if id == "cs_bad" {
			return nil, errors.New("provider unreachable")
		}
		return beansLines(context.Background(), id)
	}}
	rows := []model.Order{
		{SessionID: "cs_bad", PaymentMethod: model.PaymentMethodCard},
		{SessionID: "cs_ok", PaymentMethod: model.PaymentMethodCard},
		{SessionID: "trk-1", PaymentMethod: model.PaymentMethodMobileMoney},
	}
	orders := test.NewOrderLedgerStub(rows...)
	uc := NewEnrichmentUseCase(card, orders, 10, nil, discardLogger())

	out := uc.Enrich(context.Background(), rows)
	if len(out[0].Items) != 0 || len(out[1].Items) != 1 || len(out[2].Items) != 0 {
		t.Fatalf("unexpected enrichment result: %+v", out)
	}
	if card.LookupCount() != 2 {
		t.Fatalf("mobile money rows must not be looked up, got %d lookups", card.LookupCount())
	}

	failing := test.NewOrderLedgerStub()
	failing.Err = errors.New("db down")
	uc = NewEnrichmentUseCase(card, failing, 10, nil, discardLogger())
	out = uc.Enrich(context.Background(), []model.Order{{SessionID: "cs_ok", PaymentMethod: model.PaymentMethodCard}})
	if len(out[0].Items) != 0 {
		t.Fatal("row should be returned unenriched when the cache write fails")
	}
}

func TestEnrichDisabled(t *testing.T) {
	card := &test.CardProviderStub{LineItemsFn: beansLines}
	uc := NewEnrichmentUseCase(card, test.NewOrderLedgerStub(), 0, nil, discardLogger())
	uc.Enrich(context.Background(), []model.Order{{SessionID: "cs_1"}})
	if card.LookupCount() != 0 {
		t.Fatal("zero limit disables enrichment")
	}
}
