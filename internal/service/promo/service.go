package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/authz"
	"github.com/spark-dating/spark-core/internal/service/ledger"
	"github.com/spark-dating/spark-core/internal/service/vip"
)

// Redemption failure reasons. Every rejected attempt maps to exactly one of
// these; callers surface them to the user verbatim.
const (
	ReasonNotFound        = "not_found"
	ReasonInactive        = "inactive"
	ReasonExpired         = "expired"
	ReasonExhausted       = "exhausted"
	ReasonAlreadyRedeemed = "already_redeemed"
)

// RedeemResult reports one redemption attempt. A rejection is a policy
// outcome carried in Reason, not an error.
type RedeemResult struct {
	Success      bool
	Reason       string
	RewardType   string
	RewardAmount int64
}

// Service handles promocode redemption and admin code management.
type Service struct {
	appCtx   *app.AppContext
	codes    *repository.PromocodeRepository
	profiles *repository.ProfileRepository
	ledger   *ledger.Service
	vip      *vip.Service
}

// NewService creates a promo service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		codes:    repository.NewPromocodeRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		ledger:   ledger.NewService(appCtx),
		vip:      vip.NewService(appCtx),
	}
}

// Redeem applies a promocode to the user's profile.
//
// The checks run in a fixed order so the user always sees the most specific
// rejection: not_found, inactive, expired, exhausted, already_redeemed. A
// prior redemption is rejected with a read before the claim insert; the
// unique (promocode_id, user_id) index on that insert is what makes a
// concurrent double redeem lose, so the checks themselves never need a
// transaction.
func (s *Service) Redeem(ctx context.Context, userID, code string) (RedeemResult, error) {
	if err := authz.RequireActor(userID); err != nil {
		return RedeemResult{}, err
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return RedeemResult{}, err
	}

	normalized := strings.ToUpper(strings.TrimSpace(code))
	promocode, err := s.codes.GetByCode(ctx, normalized)
	if err != nil {
		return RedeemResult{}, err
	}
	if promocode == nil {
		return s.reject(userID, normalized, ReasonNotFound), nil
	}
	if !promocode.IsActive {
		return s.reject(userID, normalized, ReasonInactive), nil
	}
	if promocode.ExpiresAt != nil && promocode.ExpiresAt.Before(time.Now()) {
		return s.reject(userID, normalized, ReasonExpired), nil
	}
	if promocode.MaxUses != nil && promocode.CurrentUses >= *promocode.MaxUses {
		return s.reject(userID, normalized, ReasonExhausted), nil
	}
	redeemed, err := s.codes.HasRedemption(ctx, promocode.ID, userID)
	if err != nil {
		return RedeemResult{}, err
	}
	if redeemed {
		return s.reject(userID, normalized, ReasonAlreadyRedeemed), nil
	}

	claim := &db.PromocodeRedemption{
		PromocodeID:  promocode.ID,
		UserID:       userID,
		RewardType:   promocode.RewardType,
		RewardAmount: promocode.RewardAmount,
	}
	if err := s.codes.CreateRedemption(ctx, claim); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.reject(userID, normalized, ReasonAlreadyRedeemed), nil
		}
		return RedeemResult{}, err
	}

	if err := s.applyReward(ctx, userID, promocode); err != nil {
		return RedeemResult{}, fmt.Errorf("applying promocode %s: %w", normalized, err)
	}
	if err := s.codes.IncrementUses(ctx, promocode.ID); err != nil {
		s.appCtx.Logger.Error("promocode use counter update failed", "code", normalized, "error", err)
	}

	s.appCtx.Metrics.RedemptionsTotal.WithLabelValues("success").Inc()
	s.appCtx.Logger.Info("promocode redeemed",
		"user", userID, "code", normalized,
		"reward_type", promocode.RewardType, "reward_amount", promocode.RewardAmount)
	return RedeemResult{
		Success:      true,
		RewardType:   promocode.RewardType,
		RewardAmount: promocode.RewardAmount,
	}, nil
}

func (s *Service) reject(userID, code, reason string) RedeemResult {
	s.appCtx.Metrics.RedemptionsTotal.WithLabelValues(reason).Inc()
	s.appCtx.Logger.Info("promocode rejected", "user", userID, "code", code, "reason", reason)
	return RedeemResult{Reason: reason}
}

func (s *Service) applyReward(ctx context.Context, userID string, p *db.Promocode) error {
	switch p.RewardType {
	case db.RewardStars:
		return s.ledger.Add(ctx, userID, ledger.KindStars, p.RewardAmount)
	case db.RewardBoosts:
		return s.ledger.Add(ctx, userID, ledger.KindBoosts, p.RewardAmount)
	case db.RewardVIP:
		_, err := s.vip.Grant(ctx, userID, int(p.RewardAmount))
		return err
	default:
		return fmt.Errorf("%w: unknown reward type %q", domain.ErrInvalidArgument, p.RewardType)
	}
}

// CreateParams describe a new promocode.
type CreateParams struct {
	Code         string
	RewardType   string
	RewardAmount int64
	MaxUses      *int64
	ExpiresAt    *time.Time
}

// Create issues a new promocode. Admin only. The code is normalized to
// uppercase so redemption lookups are case-insensitive.
func (s *Service) Create(ctx context.Context, actorID string, params CreateParams) (*db.Promocode, error) {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return nil, err
	}

	normalized := strings.ToUpper(strings.TrimSpace(params.Code))
	if normalized == "" {
		return nil, fmt.Errorf("%w: promocode must not be empty", domain.ErrInvalidArgument)
	}
	switch params.RewardType {
	case db.RewardStars, db.RewardBoosts, db.RewardVIP:
	default:
		return nil, fmt.Errorf("%w: unknown reward type %q", domain.ErrInvalidArgument, params.RewardType)
	}
	if params.RewardAmount <= 0 {
		return nil, fmt.Errorf("%w: reward amount must be positive", domain.ErrInvalidArgument)
	}

	promocode := &db.Promocode{
		Code:         normalized,
		RewardType:   params.RewardType,
		RewardAmount: params.RewardAmount,
		MaxUses:      params.MaxUses,
		ExpiresAt:    params.ExpiresAt,
		IsActive:     true,
		CreatedBy:    actorID,
	}
	if err := s.codes.Create(ctx, promocode); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: promocode %s already exists", domain.ErrInvalidArgument, normalized)
		}
		return nil, err
	}
	s.appCtx.Logger.Info("promocode created", "code", normalized, "by", actorID)
	return promocode, nil
}

// List returns all promocodes. Admin only.
func (s *Service) List(ctx context.Context, actorID string) ([]db.Promocode, error) {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return nil, err
	}
	return s.codes.List(ctx)
}

// Deactivate retires a promocode without deleting its redemption history.
// Admin only.
func (s *Service) Deactivate(ctx context.Context, actorID, promocodeID string) error {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return err
	}
	return s.codes.Deactivate(ctx, promocodeID)
}

// Redemptions returns the user's own redemption history.
func (s *Service) Redemptions(ctx context.Context, userID string) ([]db.PromocodeRedemption, error) {
	if err := authz.RequireActor(userID); err != nil {
		return nil, err
	}
	return s.codes.ListRedemptionsByUser(ctx, userID)
}
