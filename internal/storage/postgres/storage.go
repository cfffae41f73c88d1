package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/orderledger/internal/domain/errors"
	"github.com/polkiloo/orderledger/internal/domain/ledger"
	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/domain/repository"
)

const defaultListLimit = 100

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
	now    func() time.Time
}

type orderRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("order ledger schema ready")
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Orders returns the order ledger repository.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            session_id TEXT PRIMARY KEY,
            payment_method TEXT NOT NULL DEFAULT 'card',
            status TEXT NOT NULL DEFAULT 'pending',
            total_cents BIGINT NOT NULL DEFAULT 0 CHECK (total_cents >= 0),
            currency TEXT NOT NULL DEFAULT '',
            client_total_cents BIGINT,
            email TEXT,
            user_id TEXT,
            customer_name TEXT,
            items JSONB NOT NULL DEFAULT '[]'::jsonb,
            location TEXT NOT NULL DEFAULT '',
            subtotal_cents BIGINT NOT NULL DEFAULT 0,
            shipping_cents BIGINT NOT NULL DEFAULT 0,
            tax_cents BIGINT NOT NULL DEFAULT 0,
            discount_code TEXT NOT NULL DEFAULT '',
            discount_cents BIGINT NOT NULL DEFAULT 0,
            tip_cents BIGINT NOT NULL DEFAULT 0,
            merchant_reference TEXT,
            ipn_id TEXT,
            error TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            paid_at TIMESTAMPTZ,
            polled_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(lower(email))`,
		`CREATE INDEX IF NOT EXISTS idx_orders_pending ON orders(status, payment_method, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const orderColumns = `session_id, payment_method, status, total_cents, currency, client_total_cents,
                   email, user_id, customer_name, items, location, subtotal_cents, shipping_cents,
                   tax_cents, discount_code, discount_cents, tip_cents, merchant_reference, ipn_id,
                   error, created_at, updated_at, paid_at`

// --- OrderRepository implementation ---

func (r *orderRepository) MergeOrder(ctx context.Context, patch model.OrderPatch, policy model.MergePolicy) (*model.Order, error) {
	if strings.TrimSpace(patch.SessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domainErrors.ErrValidation)
	}

	const insertPlaceholder = `INSERT INTO orders (session_id, payment_method, status, created_at, updated_at)
                               VALUES ($1, $2, 'pending', $3, $3)
                               ON CONFLICT (session_id) DO NOTHING
                               RETURNING session_id`
	const selectForUpdate = `SELECT ` + orderColumns + ` FROM orders WHERE session_id=$1 FOR UPDATE`

	var merged model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		now := r.storage.clock()
		method := patch.PaymentMethod
		if method == "" {
			method = model.PaymentMethodCard
		}

		var inserted string
		fresh := true
		if err := tx.QueryRow(ctx, insertPlaceholder, patch.SessionID, string(method), now).Scan(&inserted); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("insert order: %w", err)
			}
			fresh = false
		}

		var existing *model.Order
		if !fresh {
			current, err := scanOrder(tx.QueryRow(ctx, selectForUpdate, patch.SessionID))
			if err != nil {
				return fmt.Errorf("lock order: %w", err)
			}
			existing = current
		}

		merged = ledger.Merge(existing, patch, policy, now)
		return updateOrder(ctx, tx, merged)
	})
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

func updateOrder(ctx context.Context, tx pgx.Tx, o model.Order) error {
	const query = `UPDATE orders SET
                       payment_method=$2, status=$3, total_cents=$4, currency=$5, client_total_cents=$6,
                       email=$7, user_id=$8, customer_name=$9, items=$10, location=$11,
                       subtotal_cents=$12, shipping_cents=$13, tax_cents=$14, discount_code=$15,
                       discount_cents=$16, tip_cents=$17, merchant_reference=$18, ipn_id=$19,
                       error=$20, updated_at=$21, paid_at=$22
                   WHERE session_id=$1`

	items := o.Items
	if items == nil {
		items = []model.LineItem{}
	}
	rawItems, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	var clientTotal *int64
	if o.ClientTotal != nil {
		c := toCents(*o.ClientTotal)
		clientTotal = &c
	}

	_, err = tx.Exec(ctx, query,
		o.SessionID, string(o.PaymentMethod), string(o.Status), toCents(o.Total), o.Currency, clientTotal,
		o.Email, o.UserID, o.CustomerName, rawItems, o.Breakdown.Location,
		toCents(o.Breakdown.Subtotal), toCents(o.Breakdown.Shipping), toCents(o.Breakdown.Tax), o.Breakdown.DiscountCode,
		toCents(o.Breakdown.DiscountAmount), toCents(o.Breakdown.TipAmount), o.MerchantReference, o.IPNID,
		o.Error, o.UpdatedAt, o.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE session_id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByOwner(ctx context.Context, owner model.Identity, limit int) ([]model.Order, error) {
	if owner.Anonymous() {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	var email *string
	if owner.Email != nil {
		e := model.NormalizeEmail(*owner.Email)
		email = &e
	}

	const query = `SELECT ` + orderColumns + `
                   FROM orders
                   WHERE ($1::text IS NOT NULL AND user_id=$1)
                      OR ($2::text IS NOT NULL AND lower(email)=$2)
                   ORDER BY created_at DESC
                   LIMIT $3`
	rows, err := r.storage.pool.Query(ctx, query, owner.UserID, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *orderRepository) SelectPendingForPolling(ctx context.Context, method model.PaymentMethod, createdAfter time.Time, limit int) ([]model.Order, error) {
	const selectQuery = `SELECT ` + orderColumns + `
                         FROM orders
                         WHERE status='pending' AND payment_method=$1 AND created_at >= $2
                         ORDER BY polled_at NULLS FIRST, created_at
                         LIMIT $3
                         FOR UPDATE SKIP LOCKED`
	const stampQuery = `UPDATE orders SET polled_at=$1 WHERE session_id = ANY($2)`

	var orders []model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, string(method), createdAfter, limit)
		if err != nil {
			return err
		}
		batch, err := collectOrders(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		ids := make([]string, 0, len(batch))
		for _, o := range batch {
			ids = append(ids, o.SessionID)
		}
		if _, err := tx.Exec(ctx, stampQuery, r.storage.clock(), ids); err != nil {
			return err
		}
		orders = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ClaimByEmail(ctx context.Context, userID, email string) (int64, error) {
	userID = strings.TrimSpace(userID)
	email = model.NormalizeEmail(email)
	if userID == "" || email == "" {
		return 0, fmt.Errorf("%w: user id and email are required", domainErrors.ErrValidation)
	}

	const query = `UPDATE orders SET user_id=$1, updated_at=NOW()
                   WHERE user_id IS NULL AND lower(email)=$2`
	tag, err := r.storage.pool.Exec(ctx, query, userID, email)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                                     model.Order
		method, status                        string
		total                                 int64
		clientTotal                           *int64
		rawItems                              []byte
		subtotal, shipping, tax, disc, tipAmt int64
	)
	err := row.Scan(
		&o.SessionID, &method, &status, &total, &o.Currency, &clientTotal,
		&o.Email, &o.UserID, &o.CustomerName, &rawItems, &o.Breakdown.Location,
		&subtotal, &shipping, &tax, &o.Breakdown.DiscountCode,
		&disc, &tipAmt, &o.MerchantReference, &o.IPNID,
		&o.Error, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = model.PaymentMethod(method)
	o.Status = model.OrderStatus(status)
	o.Total = fromCents(total)
	if clientTotal != nil {
		ct := fromCents(*clientTotal)
		o.ClientTotal = &ct
	}
	o.Breakdown.Subtotal = fromCents(subtotal)
	o.Breakdown.Shipping = fromCents(shipping)
	o.Breakdown.Tax = fromCents(tax)
	o.Breakdown.DiscountAmount = fromCents(disc)
	o.Breakdown.TipAmount = fromCents(tipAmt)

	if len(rawItems) > 0 {
		if err := json.Unmarshal(rawItems, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
	}
	return &o, nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
