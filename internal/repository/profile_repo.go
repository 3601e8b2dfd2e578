package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
)

// Currency columns the ledger is allowed to touch. Kept as a closed set so a
// caller can never aim a balance update at an arbitrary column.
const (
	ColumnStars  = "stars"
	ColumnBoosts = "boosts"
)

// ProfileRepository provides data access for the Profile model.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Get fetches a profile by id. Returns domain.ErrProfileNotFound when absent.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail fetches a profile by email.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).First(&p, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *db.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// UpdateFields applies a partial update to a profile.
func (r *ProfileRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&db.Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL counts changed rows, not matched rows, so a no-op update on
		// an existing profile also lands here. Disambiguate with a read.
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeductCurrency atomically subtracts amount from the given balance column,
// guarded so the balance can never go negative:
//
//	UPDATE profiles SET col = col - ? WHERE id = ? AND col >= ?
//
// Returns false (and no error) when the guard rejects the write, which is
// the insufficient-balance outcome. This replaces the read-modify-write the
// client used to do; concurrent deductions serialize on the row.
func (r *ProfileRepository) DeductCurrency(ctx context.Context, id, column string, amount int64) (bool, error) {
	if err := validCurrencyColumn(column); err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Model(&db.Profile{}).
		Where("id = ? AND "+column+" >= ?", id, amount).
		UpdateColumn(column, gorm.Expr(column+" - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddCurrency atomically adds amount (> 0) to the given balance column.
func (r *ProfileRepository) AddCurrency(ctx context.Context, id, column string, amount int64) error {
	if err := validCurrencyColumn(column); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&db.Profile{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// AdjustCurrency applies a signed delta, clamping the result at zero. A
// negative delta first tries the guarded decrement; if the balance is too
// small the column is zeroed instead of going negative.
func (r *ProfileRepository) AdjustCurrency(ctx context.Context, id, column string, delta int64) error {
	if delta >= 0 {
		return r.AddCurrency(ctx, id, column, delta)
	}
	ok, err := r.DeductCurrency(ctx, id, column, -delta)
	if err != nil {
		return err
	}
	if !ok {
		res := r.db.WithContext(ctx).Model(&db.Profile{}).
			Where("id = ?", id).
			UpdateColumn(column, 0)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Zeroing an already-zero balance changes no rows on MySQL.
			if _, err := r.Get(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetVIP writes the VIP flag and expiry (nil expiry = lifetime).
func (r *ProfileRepository) SetVIP(ctx context.Context, id string, expiresAt *time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"has_vip":                 true,
		"subscription_expires_at": expiresAt,
	})
}

// MarkSeen stamps the profile's last activity time. Written directly so the
// heartbeat does not churn updated_at.
func (r *ProfileRepository) MarkSeen(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&db.Profile{}).
		Where("id = ?", id).
		UpdateColumn("last_seen_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SetBoostExpiry writes the boost window end for a profile.
func (r *ProfileRepository) SetBoostExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"boost_expires_at": expiresAt,
	})
}

// DemoteExpiredVIP clears has_vip on profiles whose subscription has lapsed.
// Lifetime rows (null expiry) are never touched. Used by the expiry sweep.
func (r *ProfileRepository) DemoteExpiredVIP(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&db.Profile{}).
		Where("has_vip = ? AND subscription_expires_at IS NOT NULL AND subscription_expires_at < ?", true, now).
		UpdateColumn("has_vip", false)
	return res.RowsAffected, res.Error
}

// List returns a page of profiles with an optional case-insensitive name or
// email search, newest first. Used by the admin console.
func (r *ProfileRepository) List(ctx context.Context, offset, limit int, search string) ([]db.Profile, int64, error) {
	query := r.db.WithContext(ctx).Model(&db.Profile{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []db.Profile
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func validCurrencyColumn(column string) error {
	switch column {
	case ColumnStars, ColumnBoosts:
		return nil
	}
	return fmt.Errorf("%w: unknown currency column %q", domain.ErrInvalidArgument, column)
}
