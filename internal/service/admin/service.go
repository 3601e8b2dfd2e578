package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/authz"
)

// Pinned-position slots in the browse feed.
const (
	MinPinnedPosition = 1
	MaxPinnedPosition = 10
)

// Service covers the moderation console: user listing, bans, feed pinning
// and the payments audit view. Currency adjustments, VIP grants and
// promocode management live with their own services and do their own admin
// checks.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	payments *repository.PaymentRepository
}

// NewService creates an admin service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		payments: repository.NewPaymentRepository(appCtx.DB),
	}
}

// ListUsers returns a page of profiles with an optional name/email search.
func (s *Service) ListUsers(ctx context.Context, actorID string, offset, limit int, search string) ([]db.Profile, int64, error) {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.profiles.List(ctx, offset, limit, search)
}

// Ban blocks the user. Banning is idempotent.
func (s *Service) Ban(ctx context.Context, actorID, userID string) error {
	return s.setBanned(ctx, actorID, userID, true)
}

// Unban lifts a ban.
func (s *Service) Unban(ctx context.Context, actorID, userID string) error {
	return s.setBanned(ctx, actorID, userID, false)
}

func (s *Service) setBanned(ctx context.Context, actorID, userID string, banned bool) error {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return err
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.profiles.UpdateFields(ctx, userID, map[string]interface{}{
		"is_banned": banned,
	}); err != nil {
		return err
	}
	s.appCtx.Logger.Info("ban state changed", "user", userID, "banned", banned, "by", actorID)
	return nil
}

// Transaction kinds for ListTransactions filtering.
const (
	TransactionAll      = "all"
	TransactionVIP      = "vip"
	TransactionCurrency = "currency"
)

// Transaction is one row in the payments audit view, flattened over the two
// order tables.
type Transaction struct {
	Kind        string
	OrderID     string
	UserID      string
	PackageType string
	Price       int64
	Status      string
	ActivatedAt *time.Time
	CreatedAt   time.Time
}

// ListTransactions returns the newest orders of the requested kind, VIP and
// currency interleaved by creation time.
func (s *Service) ListTransactions(ctx context.Context, actorID, kind string, limit int) ([]Transaction, error) {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var txs []Transaction
	switch kind {
	case TransactionAll, TransactionVIP, TransactionCurrency:
	default:
		return nil, fmt.Errorf("%w: unknown transaction kind %q", domain.ErrInvalidArgument, kind)
	}

	if kind != TransactionCurrency {
		vips, err := s.payments.ListVIPRecent(ctx, limit)
		if err != nil {
			return nil, err
		}
		for _, p := range vips {
			txs = append(txs, Transaction{
				Kind:        TransactionVIP,
				OrderID:     p.OrderID,
				UserID:      p.UserID,
				PackageType: p.PackageType,
				Price:       p.Price,
				Status:      p.PaymentStatus,
				ActivatedAt: p.ActivatedAt,
				CreatedAt:   p.CreatedAt,
			})
		}
	}
	if kind != TransactionVIP {
		currencies, err := s.payments.ListCurrencyRecent(ctx, limit)
		if err != nil {
			return nil, err
		}
		for _, p := range currencies {
			txs = append(txs, Transaction{
				Kind:        TransactionCurrency,
				OrderID:     p.OrderID,
				UserID:      p.UserID,
				PackageType: p.PackageType,
				Price:       p.Price,
				Status:      p.PaymentStatus,
				ActivatedAt: p.ActivatedAt,
				CreatedAt:   p.CreatedAt,
			})
		}
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// SetPinnedPosition pins the profile into a browse-feed slot, or clears the
// pin when position is nil.
func (s *Service) SetPinnedPosition(ctx context.Context, actorID, userID string, position *int) error {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return err
	}
	if position != nil && (*position < MinPinnedPosition || *position > MaxPinnedPosition) {
		return fmt.Errorf("%w: pinned position must be between %d and %d",
			domain.ErrInvalidArgument, MinPinnedPosition, MaxPinnedPosition)
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return err
	}
	return s.profiles.UpdateFields(ctx, userID, map[string]interface{}{
		"pinned_position": position,
	})
}
