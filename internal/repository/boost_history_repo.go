package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/spark-dating/spark-core/internal/db"
)

// BoostHistoryRepository provides access to the append-only boost audit trail.
type BoostHistoryRepository struct {
	db *gorm.DB
}

// NewBoostHistoryRepository creates a new repository bound to the given DB connection.
func NewBoostHistoryRepository(database *gorm.DB) *BoostHistoryRepository {
	return &BoostHistoryRepository{db: database}
}

// Append records one boost application.
func (r *BoostHistoryRepository) Append(ctx context.Context, boosterID, boostedID string) error {
	rec := db.BoostHistory{BoosterID: boosterID, BoostedID: boostedID}
	return r.db.WithContext(ctx).Create(&rec).Error
}

// List returns the most recent boost records, newest first.
func (r *BoostHistoryRepository) List(ctx context.Context, limit int) ([]db.BoostHistory, error) {
	var recs []db.BoostHistory
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}
