package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/spark-dating/spark-core/internal/db"
)

// MatchRepository provides data access for the Match model.
//
// Pairs are always normalized to (lo, hi) before hitting the store, so the
// unordered pair {A, B} maps to exactly one row regardless of which side
// triggered the lookup or the creation.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// NormalizePair orders two profile ids into the stored (lo, hi) form.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Get fetches a match by id.
func (r *MatchRepository) Get(ctx context.Context, id string) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByPair fetches the match for the unordered pair {a, b}, or nil when the
// pair has never matched.
func (r *MatchRepository) GetByPair(ctx context.Context, a, b string) (*db.Match, error) {
	lo, hi := NormalizePair(a, b)
	var m db.Match
	err := r.db.WithContext(ctx).
		First(&m, "user_lo_id = ? AND user_hi_id = ?", lo, hi).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a match for the unordered pair {a, b}.
//
// Two clients detecting the same mutual like concurrently can both call
// Create; the unique pair index lets only one insert through, and the loser
// re-fetches the winner's row. Either way the caller gets the single match.
func (r *MatchRepository) Create(ctx context.Context, a, b string) (*db.Match, error) {
	lo, hi := NormalizePair(a, b)
	m := db.Match{UserLoID: lo, UserHiID: hi}
	err := r.db.WithContext(ctx).Create(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, ferr := r.GetByPair(ctx, a, b)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, fmt.Errorf("match vanished after duplicate-key on create")
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// TouchLastMessage bumps last_message_at on chat activity.
func (r *MatchRepository) TouchLastMessage(ctx context.Context, matchID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&db.Match{}).
		Where("id = ?", matchID).
		UpdateColumn("last_message_at", at).Error
}

// ListForUser returns all matches the profile is part of, most recently
// active first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID string) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_lo_id = ? OR user_hi_id = ?", userID, userID).
		Order("last_message_at DESC, created_at DESC").
		Find(&matches).Error
	return matches, err
}
