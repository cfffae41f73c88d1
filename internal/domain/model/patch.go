package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementEvent is a provider-reported lifecycle event for a session.
type SettlementEvent string

const (
	EventCompleted      SettlementEvent = "completed"
	EventAsyncSucceeded SettlementEvent = "async_succeeded"
	EventExpired        SettlementEvent = "expired"
	EventAsyncFailed    SettlementEvent = "async_failed"
)

// MergePolicy selects which fields a write may touch on an existing row.
type MergePolicy string

const (
	// PolicyCheckout refreshes pricing and items from a new checkout attempt.
	PolicyCheckout MergePolicy = "checkout"
	// PolicySettlement applies a status transition and settled amount.
	PolicySettlement MergePolicy = "settlement"
	// PolicyEnrichment only backfills empty items.
	PolicyEnrichment MergePolicy = "enrichment"
)

// OrderPatch carries the facts one writer wants merged into a ledger row.
// Nil fields are left untouched.
type OrderPatch struct {
	SessionID         string
	PaymentMethod     PaymentMethod
	Event             *SettlementEvent
	FailureReason     string
	OccurredAt        *time.Time
	Total             *decimal.Decimal
	Currency          string
	ClientTotal       *decimal.Decimal
	Email             *string
	UserID            *string
	CustomerName      *string
	Items             []LineItem
	Breakdown         *Breakdown
	MerchantReference *string
	IPNID             *string
}

// WithEvent sets the settlement event and the failure reason recorded for it.
func (p OrderPatch) WithEvent(ev SettlementEvent, reason string) OrderPatch {
	p.Event = &ev
	p.FailureReason = reason
	return p
}
