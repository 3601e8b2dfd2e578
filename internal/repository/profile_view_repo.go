package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spark-dating/spark-core/internal/db"
)

// ProfileViewRepository provides data access for profile-view records.
type ProfileViewRepository struct {
	db *gorm.DB
}

// NewProfileViewRepository creates a new repository bound to the given DB connection.
func NewProfileViewRepository(database *gorm.DB) *ProfileViewRepository {
	return &ProfileViewRepository{db: database}
}

// Upsert records that viewerID looked at viewedID. A repeat view hits the
// unique (viewer_id, viewed_id) index and refreshes viewed_at instead of
// inserting a second row.
func (r *ProfileViewRepository) Upsert(ctx context.Context, viewerID, viewedID string, at time.Time) error {
	rec := db.ProfileView{ViewerID: viewerID, ViewedID: viewedID, ViewedAt: at}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "viewer_id"}, {Name: "viewed_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"viewed_at"}),
	}).Create(&rec).Error
}

// ListViewers returns who looked at the profile, most recent view first.
func (r *ProfileViewRepository) ListViewers(ctx context.Context, viewedID string, limit int) ([]db.ProfileView, error) {
	var views []db.ProfileView
	err := r.db.WithContext(ctx).
		Where("viewed_id = ?", viewedID).
		Order("viewed_at DESC").
		Limit(limit).
		Find(&views).Error
	return views, err
}

// ListViewed returns the profiles the viewer looked at, most recent first.
func (r *ProfileViewRepository) ListViewed(ctx context.Context, viewerID string, limit int) ([]db.ProfileView, error) {
	var views []db.ProfileView
	err := r.db.WithContext(ctx).
		Where("viewer_id = ?", viewerID).
		Order("viewed_at DESC").
		Limit(limit).
		Find(&views).Error
	return views, err
}
