package vip

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/authz"
	"github.com/spark-dating/spark-core/internal/service/ledger"
)

// Service manages VIP subscription state: the active-VIP predicate, grant
// stacking, order creation and idempotent payment activation.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	payments *repository.PaymentRepository
	ledger   *ledger.Service
}

// NewService creates a VIP manager with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		payments: repository.NewPaymentRepository(appCtx.DB),
		ledger:   ledger.NewService(appCtx),
	}
}

// IsActive reports whether the profile's VIP subscription is active at now:
// has_vip must be set and the expiry must be unset (lifetime) or in the
// future.
//
// This predicate is the single source of truth for VIP gating. Call it; do
// not re-derive the expiry comparison inline anywhere else.
func IsActive(p *db.Profile, now time.Time) bool {
	if p == nil || !p.HasVIP {
		return false
	}
	if p.SubscriptionExpiresAt == nil {
		return true
	}
	return p.SubscriptionExpiresAt.After(now)
}

// Grant extends the user's VIP subscription by days.
//
// Stacking rule: when the current expiry is still in the future the days are
// added on top of it, otherwise they count from now. LifetimeDays sets a
// null expiry, which is absorbing: once lifetime, every later grant keeps
// it lifetime. Payment activation, promo redemption and admin grants all
// funnel through here.
func (s *Service) Grant(ctx context.Context, userID string, days int) (*time.Time, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: vip days must be positive", domain.ErrInvalidArgument)
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if days == LifetimeDays || (p.HasVIP && p.SubscriptionExpiresAt == nil) {
		if err := s.profiles.SetVIP(ctx, userID, nil); err != nil {
			return nil, err
		}
		s.appCtx.Logger.Info("vip granted", "user", userID, "lifetime", true)
		return nil, nil
	}

	now := time.Now()
	start := now
	if p.SubscriptionExpiresAt != nil && p.SubscriptionExpiresAt.After(now) {
		start = *p.SubscriptionExpiresAt
	}
	expiry := start.AddDate(0, 0, days)

	if err := s.profiles.SetVIP(ctx, userID, &expiry); err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("vip granted", "user", userID, "days", days, "expires_at", expiry)
	return &expiry, nil
}

// GrantByAdmin is the admin-console grant path.
func (s *Service) GrantByAdmin(ctx context.Context, actorID, userID string, days int) (*time.Time, error) {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return nil, err
	}
	return s.Grant(ctx, userID, days)
}

// CreateVIPOrder opens a pending VIP payment for the given package. The
// order id keys the whole gateway round-trip; the gateway webhook later
// flips the status and triggers activation.
func (s *Service) CreateVIPOrder(ctx context.Context, userID, packageType string) (*db.VIPPayment, error) {
	pkg, ok := Packages[packageType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown vip package %q", domain.ErrInvalidArgument, packageType)
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}

	payment := &db.VIPPayment{
		OrderID:       uuid.NewString(),
		UserID:        userID,
		PackageType:   packageType,
		VIPDays:       pkg.Days,
		BonusStars:    pkg.BonusStars,
		Price:         pkg.Price,
		PaymentStatus: db.PaymentPending,
	}
	if err := s.payments.CreateVIP(ctx, payment); err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("vip order created", "user", userID, "order", payment.OrderID, "package", packageType)
	return payment, nil
}

// CreateCurrencyOrder opens a pending stars/boosts payment.
func (s *Service) CreateCurrencyOrder(ctx context.Context, userID, packageType string) (*db.CurrencyPayment, error) {
	pkg, ok := CurrencyPackages[packageType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown currency package %q", domain.ErrInvalidArgument, packageType)
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}

	payment := &db.CurrencyPayment{
		OrderID:       uuid.NewString(),
		UserID:        userID,
		PackageType:   packageType,
		Stars:         pkg.Stars,
		Boosts:        pkg.Boosts,
		Price:         pkg.Price,
		PaymentStatus: db.PaymentPending,
	}
	if err := s.payments.CreateCurrency(ctx, payment); err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("currency order created", "user", userID, "order", payment.OrderID, "package", packageType)
	return payment, nil
}

// ActivationResult reports a payment activation attempt. A repeat
// activation is a policy outcome, not an error.
type ActivationResult struct {
	Success bool
	Message string
}

// ActivateVIPPayment applies a finished VIP payment to its profile.
//
// Idempotency: the activation is claimed first with a guarded update on
// activated_at; only the claimer applies the reward, so a replayed webhook
// or a double poll can never credit twice.
func (s *Service) ActivateVIPPayment(ctx context.Context, orderID, gatewayPaymentID string) (ActivationResult, error) {
	payment, err := s.payments.GetVIPByOrderID(ctx, orderID)
	if err != nil {
		return ActivationResult{}, err
	}
	if payment == nil {
		return ActivationResult{}, domain.ErrPaymentNotFound
	}

	claimed, err := s.payments.ClaimVIPActivation(ctx, payment.ID, gatewayPaymentID, time.Now())
	if err != nil {
		return ActivationResult{}, err
	}
	if !claimed {
		s.appCtx.Logger.Warn("vip payment already activated", "order", orderID)
		return ActivationResult{Success: false, Message: "payment already activated"}, nil
	}

	if _, err := s.Grant(ctx, payment.UserID, payment.VIPDays); err != nil {
		return ActivationResult{}, fmt.Errorf("applying vip payment %s: %w", orderID, err)
	}
	if payment.BonusStars > 0 {
		if err := s.ledger.Add(ctx, payment.UserID, ledger.KindStars, payment.BonusStars); err != nil {
			return ActivationResult{}, fmt.Errorf("crediting bonus stars for %s: %w", orderID, err)
		}
	}

	s.appCtx.Metrics.ActivationsTotal.WithLabelValues("vip").Inc()
	s.appCtx.Logger.Info("vip payment activated", "order", orderID, "user", payment.UserID, "days", payment.VIPDays)
	return ActivationResult{
		Success: true,
		Message: fmt.Sprintf("VIP activated, +%d stars", payment.BonusStars),
	}, nil
}

// ActivateCurrencyPayment applies a finished stars/boosts payment, with the
// same claim-first idempotency as ActivateVIPPayment.
func (s *Service) ActivateCurrencyPayment(ctx context.Context, orderID, gatewayPaymentID string) (ActivationResult, error) {
	payment, err := s.payments.GetCurrencyByOrderID(ctx, orderID)
	if err != nil {
		return ActivationResult{}, err
	}
	if payment == nil {
		return ActivationResult{}, domain.ErrPaymentNotFound
	}

	claimed, err := s.payments.ClaimCurrencyActivation(ctx, payment.ID, gatewayPaymentID, time.Now())
	if err != nil {
		return ActivationResult{}, err
	}
	if !claimed {
		s.appCtx.Logger.Warn("currency payment already activated", "order", orderID)
		return ActivationResult{Success: false, Message: "payment already activated"}, nil
	}

	if payment.Stars > 0 {
		if err := s.ledger.Add(ctx, payment.UserID, ledger.KindStars, payment.Stars); err != nil {
			return ActivationResult{}, fmt.Errorf("crediting stars for %s: %w", orderID, err)
		}
	}
	if payment.Boosts > 0 {
		if err := s.ledger.Add(ctx, payment.UserID, ledger.KindBoosts, payment.Boosts); err != nil {
			return ActivationResult{}, fmt.Errorf("crediting boosts for %s: %w", orderID, err)
		}
	}

	s.appCtx.Metrics.ActivationsTotal.WithLabelValues("currency").Inc()
	s.appCtx.Logger.Info("currency payment activated", "order", orderID, "user", payment.UserID)
	return ActivationResult{Success: true, Message: "purchase activated"}, nil
}

// PrivacySettings are the VIP-gated privacy controls.
type PrivacySettings struct {
	PrivacyMessages  string
	HideOnlineStatus bool
	InvisibleMode    bool
}

// UpdatePrivacySettings writes the privacy controls. Requires an active VIP
// subscription; non-VIP profiles keep the defaults.
func (s *Service) UpdatePrivacySettings(ctx context.Context, userID string, settings PrivacySettings) error {
	switch settings.PrivacyMessages {
	case db.PrivacyMessagesAll, db.PrivacyMessagesMatchedOnly, db.PrivacyMessagesNone:
	default:
		return fmt.Errorf("%w: unknown message privacy %q", domain.ErrInvalidArgument, settings.PrivacyMessages)
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !IsActive(p, time.Now()) {
		return domain.ErrVIPRequired
	}

	return s.profiles.UpdateFields(ctx, userID, map[string]interface{}{
		"privacy_messages":   settings.PrivacyMessages,
		"hide_online_status": settings.HideOnlineStatus,
		"invisible_mode":     settings.InvisibleMode,
	})
}
