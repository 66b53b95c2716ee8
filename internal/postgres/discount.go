// Package postgres implements the pricing engine's persistence collaborators
// against PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DiscountStore implements domain.DiscountStore using PostgreSQL.
type DiscountStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that DiscountStore implements domain.DiscountStore.
var _ domain.DiscountStore = (*DiscountStore)(nil)

// NewDiscountStore creates a new PostgreSQL-backed discount store.
func NewDiscountStore(pool *pgxpool.Pool) *DiscountStore {
	return &DiscountStore{pool: pool}
}

const codeColumns = `
	id, code, discount_type, value::text, max_discount::text,
	min_order_value::text, usage_limit, usage_count, per_customer_limit,
	is_active, starts_at, expires_at, scope_kind, applicable_ids,
	created_at, updated_at`

// GetCodeByCode fetches a discount code by its normalized (upper-cased) form.
func (s *DiscountStore) GetCodeByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+codeColumns+`
		 FROM discount_codes
		 WHERE code = $1`,
		domain.NormalizeCode(code),
	)

	dc, err := scanCode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, domain.Internal(err, "discount.get_code", "failed to get discount code")
	}
	return dc, nil
}

// CreateCode inserts a new discount code. The code string is normalized
// before storage so lookups stay case-insensitive.
func (s *DiscountStore) CreateCode(ctx context.Context, dc *domain.DiscountCode) (*domain.DiscountCode, error) {
	applicableIDs := make([]uuid.UUID, 0, len(dc.Scope.IDs))
	for id := range dc.Scope.IDs {
		applicableIDs = append(applicableIDs, id)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO discount_codes (
			code, discount_type, value, max_discount, min_order_value,
			usage_limit, per_customer_limit, is_active, starts_at,
			expires_at, scope_kind, applicable_ids
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING`+codeColumns,
		domain.NormalizeCode(dc.Code),
		string(dc.Type),
		dc.Value.String(),
		decimalPtrToString(dc.MaxDiscount),
		decimalPtrToString(dc.MinOrderValue),
		dc.UsageLimit,
		dc.PerCustomerLimit,
		dc.IsActive,
		dc.StartsAt,
		dc.ExpiresAt,
		string(dc.Scope.Kind),
		applicableIDs,
	)

	created, err := scanCode(row)
	if err != nil {
		return nil, domain.Internal(err, "discount.create_code", "failed to create discount code")
	}
	return created, nil
}

// CountCustomerRedemptions returns how many times a customer has redeemed a
// code across all their orders.
func (s *DiscountStore) CountCustomerRedemptions(ctx context.Context, codeID, customerID uuid.UUID) (int32, error) {
	var count int32
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM discount_redemptions
		 WHERE discount_code_id = $1 AND customer_id = $2`,
		codeID, customerID,
	).Scan(&count)
	if err != nil {
		return 0, domain.Internal(err, "discount.count_redemptions", "failed to count redemptions")
	}
	return count, nil
}

// RedeemCode increments the code's usage count and appends a redemption
// record in one serializable transaction. The code row is locked first and
// both limits re-checked under the lock: validation done at quote time is
// stale by the time an order commits, and this is the only check that holds
// under concurrent checkouts.
func (s *DiscountStore) RedeemCode(ctx context.Context, params domain.RedeemParams) (*domain.Redemption, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, domain.Internal(err, "discount.redeem", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var usageCount int32
	var usageLimit, perCustomerLimit *int32
	err = tx.QueryRow(ctx,
		`SELECT usage_count, usage_limit, per_customer_limit
		 FROM discount_codes
		 WHERE id = $1
		 FOR UPDATE`,
		params.DiscountCodeID,
	).Scan(&usageCount, &usageLimit, &perCustomerLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, domain.Internal(err, "discount.redeem", "failed to lock discount code")
	}

	if usageLimit != nil && usageCount >= *usageLimit {
		return nil, domain.ErrUsageLimitExceeded
	}

	if perCustomerLimit != nil {
		var priorUsage int32
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*)
			 FROM discount_redemptions
			 WHERE discount_code_id = $1 AND customer_id = $2`,
			params.DiscountCodeID, params.CustomerID,
		).Scan(&priorUsage)
		if err != nil {
			return nil, domain.Internal(err, "discount.redeem", "failed to count prior redemptions")
		}
		if priorUsage >= *perCustomerLimit {
			return nil, domain.ErrPerCustomerLimitExceeded
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE discount_codes
		 SET usage_count = usage_count + 1, updated_at = now()
		 WHERE id = $1`,
		params.DiscountCodeID,
	)
	if err != nil {
		return nil, domain.Internal(err, "discount.redeem", "failed to increment usage count")
	}

	redemption := &domain.Redemption{
		ID:             uuid.New(),
		DiscountCodeID: params.DiscountCodeID,
		OrderID:        params.OrderID,
		CustomerID:     params.CustomerID,
		Amount:         params.Amount,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO discount_redemptions (
			id, discount_code_id, order_id, customer_id, discount_amount
		 ) VALUES ($1, $2, $3, $4, $5)
		 RETURNING redeemed_at`,
		redemption.ID,
		redemption.DiscountCodeID,
		redemption.OrderID,
		redemption.CustomerID,
		redemption.Amount.String(),
	).Scan(&redemption.RedeemedAt)
	if err != nil {
		return nil, domain.Internal(err, "discount.redeem", "failed to record redemption")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, "discount.redeem", "failed to commit redemption")
	}

	return redemption, nil
}

// scanCode scans one discount_codes row into a domain.DiscountCode.
func scanCode(row pgx.Row) (*domain.DiscountCode, error) {
	var (
		dc                           domain.DiscountCode
		discountType, scopeKind      string
		valueStr                     string
		maxDiscountStr, minOrderStr  *string
		applicableIDs                []uuid.UUID
		startsAt, expiresAt          *time.Time
	)

	err := row.Scan(
		&dc.ID, &dc.Code, &discountType, &valueStr, &maxDiscountStr,
		&minOrderStr, &dc.UsageLimit, &dc.UsageCount, &dc.PerCustomerLimit,
		&dc.IsActive, &startsAt, &expiresAt, &scopeKind, &applicableIDs,
		&dc.CreatedAt, &dc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	dc.Type = domain.DiscountType(discountType)
	dc.StartsAt = startsAt
	dc.ExpiresAt = expiresAt

	if dc.Value, err = decimal.NewFromString(valueStr); err != nil {
		return nil, err
	}
	if dc.MaxDiscount, err = decimalFromPtr(maxDiscountStr); err != nil {
		return nil, err
	}
	if dc.MinOrderValue, err = decimalFromPtr(minOrderStr); err != nil {
		return nil, err
	}

	switch domain.ScopeKind(scopeKind) {
	case domain.ScopeAll:
		dc.Scope = domain.AllScope()
	case domain.ScopeCategories:
		dc.Scope = domain.CategoryScope(applicableIDs...)
	case domain.ScopeProducts:
		dc.Scope = domain.ProductScope(applicableIDs...)
	default:
		return nil, domain.ErrUnknownScopeKind
	}

	return &dc, nil
}

func decimalFromPtr(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalPtrToString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
