package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/spark-dating/spark-core/internal/db"
)

// LikeRepository provides data access for the Like model.
// It encapsulates all queries on the directed liker -> liked edges.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Create inserts a directed like edge.
//
// Behavior:
//   - A fresh pair inserts a row and returns isNew = true.
//   - A repeat like hits the composite PK and returns isNew = false with no
//     error; there is no read-before-write, the constraint is the check.
func (r *LikeRepository) Create(ctx context.Context, likerID, likedID string, super bool) (bool, error) {
	like := db.Like{
		LikerID: likerID,
		LikedID: likedID,
		Super:   super,
	}
	err := r.db.WithContext(ctx).Create(&like).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether likerID has liked likedID.
func (r *LikeRepository) Exists(ctx context.Context, likerID, likedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Like{}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Count(&count).Error
	return count > 0, err
}

// ListAdmirers returns all likes pointing at the given profile, newest first.
func (r *LikeRepository) ListAdmirers(ctx context.Context, likedID string) ([]db.Like, error) {
	var likes []db.Like
	err := r.db.WithContext(ctx).
		Where("liked_id = ?", likedID).
		Order("created_at DESC, liker_id DESC").
		Find(&likes).Error
	return likes, err
}

// CountAdmirers returns how many profiles liked the given profile.
// Used in conjunction with the Redis counter (DB is the fallback).
func (r *LikeRepository) CountAdmirers(ctx context.Context, likedID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Like{}).
		Where("liked_id = ?", likedID).
		Count(&count).Error
	return count, err
}
