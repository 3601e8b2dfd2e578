package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/spark-dating/spark-core/internal/db"
)

// PromocodeRepository provides data access for promocodes and their
// redemptions.
type PromocodeRepository struct {
	db *gorm.DB
}

// NewPromocodeRepository creates a new repository bound to the given DB connection.
func NewPromocodeRepository(database *gorm.DB) *PromocodeRepository {
	return &PromocodeRepository{db: database}
}

// GetByCode fetches a promocode by its normalized (uppercase) code, or nil
// when no such code exists.
func (r *PromocodeRepository) GetByCode(ctx context.Context, code string) (*db.Promocode, error) {
	var p db.Promocode
	err := r.db.WithContext(ctx).First(&p, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a promocode. A duplicate code surfaces as
// gorm.ErrDuplicatedKey for the caller to map.
func (r *PromocodeRepository) Create(ctx context.Context, p *db.Promocode) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// List returns all promocodes, newest first.
func (r *PromocodeRepository) List(ctx context.Context) ([]db.Promocode, error) {
	var codes []db.Promocode
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&codes).Error
	return codes, err
}

// Deactivate flips is_active off.
func (r *PromocodeRepository) Deactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&db.Promocode{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false).Error
}

// DeactivateExpired flips is_active off on every active code whose expiry has
// passed. Used by the sweep job. Returns how many codes were deactivated.
func (r *PromocodeRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&db.Promocode{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		UpdateColumn("is_active", false)
	return res.RowsAffected, res.Error
}

// IncrementUses atomically bumps current_uses.
func (r *PromocodeRepository) IncrementUses(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&db.Promocode{}).
		Where("id = ?", id).
		UpdateColumn("current_uses", gorm.Expr("current_uses + ?", 1)).Error
}

// HasRedemption reports whether the user already redeemed the code.
func (r *PromocodeRepository) HasRedemption(ctx context.Context, promocodeID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.PromocodeRedemption{}).
		Where("promocode_id = ? AND user_id = ?", promocodeID, userID).
		Count(&count).Error
	return count > 0, err
}

// CreateRedemption inserts the (code, user) redemption claim. The unique
// pair index makes this the at-most-once gate: a duplicate insert surfaces
// as gorm.ErrDuplicatedKey.
func (r *PromocodeRepository) CreateRedemption(ctx context.Context, red *db.PromocodeRedemption) error {
	return r.db.WithContext(ctx).Create(red).Error
}

// ListRedemptionsByUser returns a user's redemption history, newest first.
func (r *PromocodeRepository) ListRedemptionsByUser(ctx context.Context, userID string) ([]db.PromocodeRedemption, error) {
	var reds []db.PromocodeRedemption
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reds).Error
	return reds, err
}
