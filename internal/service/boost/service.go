package boost

import (
	"context"
	"time"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/authz"
	"github.com/spark-dating/spark-core/internal/service/ledger"
)

// Service applies visibility boosts: one boost token buys a fixed extension
// of the target profile's boost window.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	history  *repository.BoostHistoryRepository
	ledger   *ledger.Service
}

// NewService creates a boost service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		history:  repository.NewBoostHistoryRepository(appCtx.DB),
		ledger:   ledger.NewService(appCtx),
	}
}

// Result reports one boost attempt. A failed deduction is a policy outcome
// carried in Reason.
type Result struct {
	Success   bool
	Reason    string
	ExpiresAt time.Time
}

// Status is the current boost window of a profile.
type Status struct {
	Active           bool
	ExpiresAt        *time.Time
	MinutesRemaining int
}

// Boost spends one of the booster's boost tokens to extend the target
// profile's visibility window.
//
// The token is deducted before the window is touched: the guarded decrement
// is what serializes concurrent boosts, and a failed deduction leaves the
// window untouched. Stacking: an unexpired window is extended from its
// current end, an expired or missing one starts from now.
func (s *Service) Boost(ctx context.Context, boosterID, targetID string) (Result, error) {
	if err := authz.RequireActor(boosterID); err != nil {
		return Result{}, err
	}
	if boosterID == targetID {
		return Result{}, domain.ErrSelfBoost
	}

	target, err := s.profiles.Get(ctx, targetID)
	if err != nil {
		return Result{}, err
	}

	deduct, err := s.ledger.Deduct(ctx, boosterID, ledger.KindBoosts, 1)
	if err != nil {
		return Result{}, err
	}
	if !deduct.Success {
		return Result{Reason: deduct.Reason}, nil
	}

	now := time.Now()
	start := now
	if target.BoostExpiresAt != nil && target.BoostExpiresAt.After(now) {
		start = *target.BoostExpiresAt
	}
	expiry := start.Add(s.appCtx.Config.Boost.Increment)

	if err := s.profiles.SetBoostExpiry(ctx, targetID, expiry); err != nil {
		return Result{}, err
	}

	// History is an audit trail only; a failed insert must not undo the boost.
	if err := s.history.Append(ctx, boosterID, targetID); err != nil {
		s.appCtx.Logger.Error("boost history write failed", "booster", boosterID, "target", targetID, "error", err)
	}

	s.appCtx.Metrics.BoostsApplied.Inc()
	s.appCtx.Logger.Info("boost applied", "booster", boosterID, "target", targetID, "expires_at", expiry)
	return Result{Success: true, ExpiresAt: expiry}, nil
}

// GetStatus returns whether the profile's boost window is currently open.
func (s *Service) GetStatus(ctx context.Context, userID string) (Status, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	now := time.Now()
	status := Status{ExpiresAt: p.BoostExpiresAt}
	if p.BoostExpiresAt != nil && p.BoostExpiresAt.After(now) {
		status.Active = true
		status.MinutesRemaining = int(p.BoostExpiresAt.Sub(now).Round(time.Minute) / time.Minute)
	}
	return status, nil
}

// History returns recent boost events. Admin only.
func (s *Service) History(ctx context.Context, actorID string, limit int) ([]db.BoostHistory, error) {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return nil, err
	}
	return s.history.List(ctx, limit)
}
