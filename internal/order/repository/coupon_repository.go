package repository

import (
	"context"
	"database/sql"
	"fmt"

	"swiftparcel/internal/domain"
	"swiftparcel/internal/errors"
)

// MySQLCouponRepository reads coupon rules and tracks redemptions. Coupon
// rows themselves are written by the admin console, outside this core.
type MySQLCouponRepository struct {
	db *sql.DB
}

func NewMySQLCouponRepository(db *sql.DB) *MySQLCouponRepository {
	return &MySQLCouponRepository{db: db}
}

func (r *MySQLCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT code, discount_type, value, valid_from, valid_until, active,
		       max_redemptions, max_per_user, redemptions, min_order_cents
		FROM coupons
		WHERE code = ?
	`

	var c domain.Coupon
	var discountType string
	var validUntil sql.NullTime

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&c.Code, &discountType, &c.Value, &c.ValidFrom, &validUntil, &c.Active,
		&c.MaxRedemptions, &c.MaxPerUser, &c.Redemptions, &c.MinOrderCents,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("coupon %s not found", code))
	}
	if err != nil {
		return nil, fmt.Errorf("querying coupon: %w", err)
	}

	c.Type = domain.DiscountType(discountType)
	if validUntil.Valid {
		c.ValidUntil = validUntil.Time
	}

	return &c, nil
}

func (r *MySQLCouponRepository) UserRedemptions(ctx context.Context, code, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM coupon_redemptions WHERE code = ? AND customer_id = ?`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, code, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting coupon redemptions: %w", err)
	}

	return count, nil
}

// IncrementRedemption records a confirmed use. Called only after the order
// row is durable; validation alone never reaches this.
func (r *MySQLCouponRepository) IncrementRedemption(ctx context.Context, code, userID string) error {
	insert := `INSERT INTO coupon_redemptions (code, customer_id, redeemed_at) VALUES (?, ?, NOW())`
	if _, err := r.db.ExecContext(ctx, insert, code, userID); err != nil {
		return fmt.Errorf("recording coupon redemption: %w", err)
	}

	bump := `UPDATE coupons SET redemptions = redemptions + 1 WHERE code = ?`
	if _, err := r.db.ExecContext(ctx, bump, code); err != nil {
		return fmt.Errorf("incrementing coupon redemptions: %w", err)
	}

	return nil
}
