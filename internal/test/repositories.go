package test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/ledger"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/domain/repository"
)

// MergeCall records one MergeOrder invocation.
type MergeCall struct {
	Patch  model.OrderPatch
	Policy model.MergePolicy
}

// OrderLedgerStub is an in-memory order ledger applying the real merge policy.
// The Fn overrides and Err take precedence over the stored rows.
type OrderLedgerStub struct {
	MergeFn   func(context.Context, model.OrderPatch, model.MergePolicy) (*model.Order, error)
	GetFn     func(context.Context, string) (*model.Order, error)
	ListFn    func(context.Context, model.Identity, int) ([]model.Order, error)
	PendingFn func(context.Context, model.PaymentMethod, time.Time, int) ([]model.Order, error)
	ClaimFn   func(context.Context, string, string) (int64, error)
	Err       error
	Now       func() time.Time

	mu     sync.Mutex
	rows   map[string]model.Order
	merges []MergeCall
}

// NewOrderLedgerStub constructs a stub seeded with rows.
func NewOrderLedgerStub(rows ...model.Order) *OrderLedgerStub {
	s := &OrderLedgerStub{rows: make(map[string]model.Order)}
	for _, r := range rows {
		s.rows[r.SessionID] = r
	}
	return s
}

func (s *OrderLedgerStub) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// MergeOrder applies patch under policy to the stored row.
func (s *OrderLedgerStub) MergeOrder(ctx context.Context, patch model.OrderPatch, policy model.MergePolicy) (*model.Order, error) {
	s.mu.Lock()
	s.merges = append(s.merges, MergeCall{Patch: patch, Policy: policy})
	s.mu.Unlock()

	if s.MergeFn != nil {
		return s.MergeFn(ctx, patch, policy)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = make(map[string]model.Order)
	}
	var existing *model.Order
	if row, ok := s.rows[patch.SessionID]; ok {
		existing = &row
	}
	merged := ledger.Merge(existing, patch, policy, s.clock())
	s.rows[merged.SessionID] = merged
	return &merged, nil
}

// GetBySessionID returns the stored row or ErrNotFound.
func (s *OrderLedgerStub) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, sessionID)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[sessionID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &row, nil
}

// ListByOwner returns rows owned by the identity, newest first.
func (s *OrderLedgerStub) ListByOwner(ctx context.Context, owner model.Identity, limit int) ([]model.Order, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, owner, limit)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, row := range s.rows {
		if row.OwnedBy(owner) {
			out = append(out, row)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SelectPendingForPolling returns pending rows of method created after createdAfter.
func (s *OrderLedgerStub) SelectPendingForPolling(ctx context.Context, method model.PaymentMethod, createdAfter time.Time, limit int) ([]model.Order, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, method, createdAfter, limit)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, row := range s.rows {
		if row.Status == model.OrderStatusPending && row.PaymentMethod == method && row.CreatedAt.After(createdAfter) {
			out = append(out, row)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ClaimByEmail sets userID on unowned rows whose email matches.
func (s *OrderLedgerStub) ClaimByEmail(ctx context.Context, userID, email string) (int64, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, userID, email)
	}
	if s.Err != nil {
		return 0, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email = model.NormalizeEmail(email)
	var n int64
	for id, row := range s.rows {
		if row.UserID == nil && row.Email != nil && strings.EqualFold(*row.Email, email) {
			uid := userID
			row.UserID = &uid
			s.rows[id] = row
			n++
		}
	}
	return n, nil
}

// Row returns a copy of the stored row.
func (s *OrderLedgerStub) Row(sessionID string) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[sessionID]
	return row, ok
}

// Merges returns the recorded MergeOrder calls.
func (s *OrderLedgerStub) Merges() []MergeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MergeCall, len(s.merges))
	copy(out, s.merges)
	return out
}

func sortNewestFirst(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].SessionID < orders[j].SessionID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// FactoryStub exposes an order ledger and a configurable health check.
type FactoryStub struct {
	Ledger    repository.OrderRepository
	HealthErr error
}

// Orders returns the configured ledger.
func (f FactoryStub) Orders() repository.OrderRepository { return f.Ledger }

// HealthCheck returns HealthErr.
func (f FactoryStub) HealthCheck(context.Context) error { return f.HealthErr }

var _ repository.OrderRepository = (*OrderLedgerStub)(nil)
var _ repository.Factory = FactoryStub{}
