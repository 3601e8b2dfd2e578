package ledger

import (
	"context"
	"fmt"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/authz"
)

// Kind names one of the two per-user balances.
type Kind string

const (
	KindStars  Kind = "stars"
	KindBoosts Kind = "boosts"
)

// ReasonInsufficient is the policy-rejection reason for a failed deduction.
const ReasonInsufficient = "insufficient"

func (k Kind) column() (string, error) {
	switch k {
	case KindStars:
		return repository.ColumnStars, nil
	case KindBoosts:
		return repository.ColumnBoosts, nil
	}
	return "", fmt.Errorf("%w: unknown currency kind %q", domain.ErrInvalidArgument, k)
}

// Balance is the read-only projection of a user's currencies.
type Balance struct {
	Stars  int64 `json:"stars"`
	Boosts int64 `json:"boosts"`
}

// DeductResult reports a deduction attempt. An insufficient balance is a
// normal outcome, not an error.
type DeductResult struct {
	Success    bool
	Reason     string
	NewBalance int64
}

// Service is the currency ledger managing the stars and boosts balances.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
}

// NewService creates a ledger with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
	}
}

// GetBalance returns the user's current balances. A missing profile reads
// as zero balances rather than an error: every caller treats "no record" and
// "no currency" the same way.
func (s *Service) GetBalance(ctx context.Context, userID string) (Balance, error) {
	p, err := s.profiles.Get(ctx, userID)
	if domain.IsNotFound(err) {
		return Balance{}, nil
	}
	if err != nil {
		return Balance{}, err
	}
	return Balance{Stars: p.Stars, Boosts: p.Boosts}, nil
}

// Deduct removes amount from the user's balance of the given kind.
//
// The write is a single guarded UPDATE, so a concurrent deduction can never
// drive the balance negative; when the guard rejects it the balance is
// untouched and the result carries the "insufficient" reason.
func (s *Service) Deduct(ctx context.Context, userID string, kind Kind, amount int64) (DeductResult, error) {
	if amount <= 0 {
		return DeductResult{}, fmt.Errorf("%w: deduct amount must be positive", domain.ErrInvalidArgument)
	}
	column, err := kind.column()
	if err != nil {
		return DeductResult{}, err
	}

	ok, err := s.profiles.DeductCurrency(ctx, userID, column, amount)
	if err != nil {
		return DeductResult{}, err
	}
	if !ok {
		s.appCtx.Logger.Debug("deduction rejected", "user", userID, "kind", kind, "amount", amount)
		return DeductResult{Success: false, Reason: ReasonInsufficient}, nil
	}

	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return DeductResult{}, err
	}
	newBalance := balance.Stars
	if kind == KindBoosts {
		newBalance = balance.Boosts
	}
	return DeductResult{Success: true, NewBalance: newBalance}, nil
}

// Add credits amount to the user's balance. This is the additive path used
// by promo rewards and payment activation; it never goes through Deduct.
func (s *Service) Add(ctx context.Context, userID string, kind Kind, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: add amount must be positive", domain.ErrInvalidArgument)
	}
	column, err := kind.column()
	if err != nil {
		return err
	}
	return s.profiles.AddCurrency(ctx, userID, column, amount)
}

// Adjust applies a signed delta to the user's balance, clamped at zero.
// Admin only; the actor check runs before any mutation.
func (s *Service) Adjust(ctx context.Context, actorID, userID string, kind Kind, delta int64) error {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return err
	}
	if delta == 0 {
		return fmt.Errorf("%w: adjust delta must be non-zero", domain.ErrInvalidArgument)
	}
	column, err := kind.column()
	if err != nil {
		return err
	}
	if err := s.profiles.AdjustCurrency(ctx, userID, column, delta); err != nil {
		return err
	}
	s.appCtx.Logger.Info("balance adjusted", "admin", actorID, "user", userID, "kind", kind, "delta", delta)
	return nil
}
