package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/spark-dating/spark-core/internal/db"
)

// PaymentRepository provides data access for VIP and currency payments.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new repository bound to the given DB connection.
func NewPaymentRepository(database *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: database}
}

// CreateVIP inserts a pending VIP-package order.
func (r *PaymentRepository) CreateVIP(ctx context.Context, p *db.VIPPayment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// CreateCurrency inserts a pending stars/boosts-package order.
func (r *PaymentRepository) CreateCurrency(ctx context.Context, p *db.CurrencyPayment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetVIPByOrderID fetches a VIP payment by order id, or nil when absent.
func (r *PaymentRepository) GetVIPByOrderID(ctx context.Context, orderID string) (*db.VIPPayment, error) {
	var p db.VIPPayment
	err := r.db.WithContext(ctx).First(&p, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetCurrencyByOrderID fetches a currency payment by order id, or nil when absent.
func (r *PaymentRepository) GetCurrencyByOrderID(ctx context.Context, orderID string) (*db.CurrencyPayment, error) {
	var p db.CurrencyPayment
	err := r.db.WithContext(ctx).First(&p, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ClaimVIPActivation marks the payment activated, guarded on activated_at
// still being null:
//
//	UPDATE vip_payments SET ... WHERE id = ? AND activated_at IS NULL
//
// Returns false when another activation already claimed it. The claim
// happens before the reward is applied, so a payment can never credit twice.
func (r *PaymentRepository) ClaimVIPActivation(ctx context.Context, id, gatewayPaymentID string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db.VIPPayment{}).
		Where("id = ? AND activated_at IS NULL", id).
		Updates(map[string]interface{}{
			"payment_status":     db.PaymentFinished,
			"gateway_payment_id": gatewayPaymentID,
			"paid_at":            now,
			"activated_at":       now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClaimCurrencyActivation is the currency-payment variant of
// ClaimVIPActivation.
func (r *PaymentRepository) ClaimCurrencyActivation(ctx context.Context, id, gatewayPaymentID string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db.CurrencyPayment{}).
		Where("id = ? AND activated_at IS NULL", id).
		Updates(map[string]interface{}{
			"payment_status":     db.PaymentFinished,
			"gateway_payment_id": gatewayPaymentID,
			"paid_at":            now,
			"activated_at":       now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkVIPStatus records a non-success terminal status from the gateway.
func (r *PaymentRepository) MarkVIPStatus(ctx context.Context, orderID, status string) error {
	return r.db.WithContext(ctx).Model(&db.VIPPayment{}).
		Where("order_id = ?", orderID).
		UpdateColumn("payment_status", status).Error
}

// MarkCurrencyStatus records a non-success terminal status from the gateway.
func (r *PaymentRepository) MarkCurrencyStatus(ctx context.Context, orderID, status string) error {
	return r.db.WithContext(ctx).Model(&db.CurrencyPayment{}).
		Where("order_id = ?", orderID).
		UpdateColumn("payment_status", status).Error
}

// ListVIPByUser returns a user's VIP payment history, newest first.
func (r *PaymentRepository) ListVIPByUser(ctx context.Context, userID string) ([]db.VIPPayment, error) {
	var payments []db.VIPPayment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// ListVIPRecent returns the newest VIP orders across all users.
func (r *PaymentRepository) ListVIPRecent(ctx context.Context, limit int) ([]db.VIPPayment, error) {
	var payments []db.VIPPayment
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

// ListCurrencyRecent returns the newest stars/boosts orders across all users.
func (r *PaymentRepository) ListCurrencyRecent(ctx context.Context, limit int) ([]db.CurrencyPayment, error) {
	var payments []db.CurrencyPayment
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
