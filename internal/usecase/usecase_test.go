package usecase

import (
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/orderledger/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func sampleCart() model.Cart {
	return model.Cart{
		Items: []model.CartItem{
			{Name: "Beans", Price: dec("10"), Quantity: dec("2"), Image: "/img/beans.png"},
		},
		Shipping:  dec("5"),
		TipAmount: dec("1"),
		Location:  "Kampala",
	}
}
