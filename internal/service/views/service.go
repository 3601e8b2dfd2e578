package views

import (
	"context"
	"time"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/authz"
	"github.com/spark-dating/spark-core/internal/service/vip"
)

// OnlineWindow is how recently a profile must have been seen to count as
// online.
const OnlineWindow = 5 * time.Minute

// listLimit caps the viewers and viewed listings.
const listLimit = 50

// Service tracks profile views and presence. This is where the VIP privacy
// toggles actually bite: invisible_mode suppresses view recording and
// hide_online_status masks the presence query, both only while the owner's
// VIP is active.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	views    *repository.ProfileViewRepository
}

// NewService creates a views service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		views:    repository.NewProfileViewRepository(appCtx.DB),
	}
}

// RecordView notes that viewerID opened viewedID's profile and reports
// whether a view was stored. Own-profile views are never stored, and a
// viewer with invisible_mode and an active VIP leaves no trace.
func (s *Service) RecordView(ctx context.Context, viewerID, viewedID string) (bool, error) {
	if err := authz.RequireActor(viewerID); err != nil {
		return false, err
	}
	if viewerID == viewedID {
		return false, nil
	}

	viewer, err := s.profiles.Get(ctx, viewerID)
	if err != nil {
		return false, err
	}
	if _, err := s.profiles.Get(ctx, viewedID); err != nil {
		return false, err
	}

	if viewer.InvisibleMode && vip.IsActive(viewer, time.Now()) {
		return false, nil
	}

	if err := s.views.Upsert(ctx, viewerID, viewedID, time.Now()); err != nil {
		return false, err
	}
	return true, nil
}

// Entry is one row in a viewers or viewed listing.
type Entry struct {
	Profile  *db.Profile
	ViewedAt time.Time
}

// Viewers returns who looked at the user's profile, most recent first.
// The who-viewed-me list is a VIP perk.
func (s *Service) Viewers(ctx context.Context, userID string) ([]Entry, error) {
	if err := authz.RequireActor(userID); err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !vip.IsActive(p, time.Now()) {
		return nil, domain.ErrVIPRequired
	}

	views, err := s.views.ListViewers(ctx, userID, listLimit)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, views, func(v db.ProfileView) string { return v.ViewerID })
}

// Viewed returns the profiles the user looked at, most recent first.
func (s *Service) Viewed(ctx context.Context, userID string) ([]Entry, error) {
	if err := authz.RequireActor(userID); err != nil {
		return nil, err
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}

	views, err := s.views.ListViewed(ctx, userID, listLimit)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, views, func(v db.ProfileView) string { return v.ViewedID })
}

// join resolves view rows to profiles, skipping ones deleted since.
func (s *Service) join(ctx context.Context, views []db.ProfileView, pick func(db.ProfileView) string) ([]Entry, error) {
	entries := make([]Entry, 0, len(views))
	for _, v := range views {
		p, err := s.profiles.Get(ctx, pick(v))
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		entries = append(entries, Entry{Profile: p, ViewedAt: v.ViewedAt})
	}
	return entries, nil
}

// OnlineStatus is the answer to "is this profile online".
type OnlineStatus struct {
	Online   bool
	LastSeen *time.Time
	Hidden   bool
}

// Status reports the profile's presence. A profile hiding its online status
// behind an active VIP comes back Hidden with no timestamp; everyone else
// reports last_seen_at and whether it falls inside OnlineWindow.
func (s *Service) Status(ctx context.Context, userID string) (OnlineStatus, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return OnlineStatus{}, err
	}

	now := time.Now()
	if p.HideOnlineStatus && vip.IsActive(p, now) {
		return OnlineStatus{Hidden: true}, nil
	}
	if p.LastSeenAt.IsZero() {
		return OnlineStatus{}, nil
	}

	lastSeen := p.LastSeenAt
	return OnlineStatus{
		Online:   now.Sub(lastSeen) < OnlineWindow,
		LastSeen: &lastSeen,
	}, nil
}

// Heartbeat stamps the caller's last activity time. Callers are expected to
// invoke it on any authenticated request.
func (s *Service) Heartbeat(ctx context.Context, userID string) error {
	if err := authz.RequireActor(userID); err != nil {
		return err
	}
	return s.profiles.MarkSeen(ctx, userID, time.Now())
}
