// Package ledger holds the storage-independent rules for merging writes into
// an order row: the settlement transition table and the per-writer merge policies.
package ledger

import (
	"strings"
	"time"

	"github.com/polkiloo/orderledger/internal/domain/model"
)

// Transition returns the status reached by applying ev to current.
// Paid is sticky; failed and expired can still be promoted to paid.
func Transition(current model.OrderStatus, ev model.SettlementEvent) model.OrderStatus {
	if current == model.OrderStatusPaid {
		return model.OrderStatusPaid
	}
	switch ev {
	case model.EventCompleted, model.EventAsyncSucceeded:
		return model.OrderStatusPaid
	case model.EventExpired:
		return model.OrderStatusExpired
	case model.EventAsyncFailed:
		return model.OrderStatusFailed
	default:
		if current == "" {
			return model.OrderStatusPending
		}
		return current
	}
}

// IsSuccess reports whether ev settles a session as paid.
func IsSuccess(ev model.SettlementEvent) bool {
	return ev == model.EventCompleted || ev == model.EventAsyncSucceeded
}

// Merge applies patch to existing under policy and returns the resulting row.
// A nil existing row means the write creates it.
func Merge(existing *model.Order, patch model.OrderPatch, policy model.MergePolicy, now time.Time) model.Order {
	fresh := existing == nil
	var out model.Order
	if fresh {
		out = model.Order{
			SessionID:     patch.SessionID,
			Status:        model.OrderStatusPending,
			PaymentMethod: patch.PaymentMethod,
			CreatedAt:     now,
		}
		if out.PaymentMethod == "" {
			out.PaymentMethod = model.PaymentMethodCard
		}
	} else {
		out = *existing
		if out.PaymentMethod == "" {
			out.PaymentMethod = patch.PaymentMethod
		}
	}
	out.UpdatedAt = now
	wasPaid := out.Status == model.OrderStatusPaid

	if patch.Email != nil {
		email := model.NormalizeEmail(*patch.Email)
		fillString(&out.Email, &email)
	}
	fillString(&out.UserID, patch.UserID)
	fillString(&out.CustomerName, patch.CustomerName)
	fillString(&out.MerchantReference, patch.MerchantReference)
	if patch.IPNID != nil && *patch.IPNID != "" {
		id := *patch.IPNID
		out.IPNID = &id
	}

	switch policy {
	case model.PolicyCheckout:
		mergeCheckout(&out, patch, fresh, wasPaid)
	case model.PolicySettlement:
		mergeSettlement(&out, patch, fresh, wasPaid, now)
	case model.PolicyEnrichment:
		fillItems(&out, patch.Items)
	}
	return out
}

func mergeCheckout(out *model.Order, patch model.OrderPatch, fresh, wasPaid bool) {
	if wasPaid {
		fillItems(out, patch.Items)
		return
	}
	if patch.Total != nil {
		out.Total = patch.Total.Round(2)
	}
	if c := normalizeCurrency(patch.Currency); c != "" {
		out.Currency = c
	}
	if patch.ClientTotal != nil {
		ct := patch.ClientTotal.Round(2)
		out.ClientTotal = &ct
	}
	if patch.Breakdown != nil {
		out.Breakdown = *patch.Breakdown
	}
	if len(patch.Items) > 0 {
		out.Items = cloneItems(patch.Items)
	}
	if fresh {
		out.Status = model.OrderStatusPending
	}
}

func mergeSettlement(out *model.Order, patch model.OrderPatch, fresh, wasPaid bool, now time.Time) {
	success := patch.Event != nil && IsSuccess(*patch.Event)
	if !wasPaid || success {
		if patch.Total != nil {
			out.Total = patch.Total.Round(2)
		}
		if c := normalizeCurrency(patch.Currency); c != "" {
			out.Currency = c
		}
	}
	if fresh && patch.Breakdown != nil {
		out.Breakdown = *patch.Breakdown
	}
	fillItems(out, patch.Items)

	if patch.Event == nil {
		return
	}
	next := Transition(out.Status, *patch.Event)
	out.Status = next
	switch next {
	case model.OrderStatusPaid:
		if out.PaidAt == nil {
			at := now
			if patch.OccurredAt != nil {
				at = *patch.OccurredAt
			}
			out.PaidAt = &at
		}
		if !wasPaid {
			out.Error = nil
		}
	case model.OrderStatusFailed, model.OrderStatusExpired:
		reason := patch.FailureReason
		if reason == "" {
			reason = string(next)
		}
		out.Error = &reason
	}
}

func fillString(dst **string, src *string) {
	if *dst != nil || src == nil || strings.TrimSpace(*src) == "" {
		return
	}
	v := strings.TrimSpace(*src)
	*dst = &v
}

// fillItems never replaces a non-empty snapshot and never writes an empty one.
func fillItems(out *model.Order, items []model.LineItem) {
	if len(out.Items) > 0 || len(items) == 0 {
		return
	}
	out.Items = cloneItems(items)
}

func cloneItems(items []model.LineItem) []model.LineItem {
	cp := make([]model.LineItem, len(items))
	copy(cp, items)
	return cp
}

func normalizeCurrency(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
