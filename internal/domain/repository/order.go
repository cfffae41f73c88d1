package repository

import (
	"context"
	"time"

	"github.com/polkiloo/orderledger/internal/domain/model"
)

// OrderRepository describes persistence operations with the order ledger.
type OrderRepository interface {
	// MergeOrder atomically inserts the row keyed by patch.SessionID or merges
	// patch into the existing one under policy, returning the stored result.
	MergeOrder(ctx context.Context, patch model.OrderPatch, policy model.MergePolicy) (*model.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	ListByOwner(ctx context.Context, owner model.Identity, limit int) ([]model.Order, error)
	SelectPendingForPolling(ctx context.Context, method model.PaymentMethod, createdAfter time.Time, limit int) ([]model.Order, error)
	ClaimByEmail(ctx context.Context, userID, email string) (int64, error)
}
