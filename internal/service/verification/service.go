package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/authz"
)

// CodeSender delivers a verification code to an address. Implementations
// wrap whatever channel is configured (email, SMS); the default just logs.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogSender logs codes instead of delivering them. Used in development and
// tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) SendCode(ctx context.Context, email, code string) error {
	s.Logger.Info("verification code issued", "email", email, "code", code)
	return nil
}

// Service handles email verification codes and photo verification review.
//
// Codes live only in Redis under a TTL, so expiry and restart invalidation
// need no sweep of their own.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	sender   CodeSender
}

// NewService creates a verification service with dependencies from
// AppContext. A nil sender falls back to LogSender.
func NewService(appCtx *app.AppContext, sender CodeSender) *Service {
	if sender == nil {
		sender = &LogSender{Logger: appCtx.Logger}
	}
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		sender:   sender,
	}
}

// SendCode issues a fresh 6-digit code for the address and stores it under
// the configured TTL. Re-sending replaces the previous code.
func (s *Service) SendCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("%w: email must not be empty", domain.ErrInvalidArgument)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	ttl := s.appCtx.Config.Verification.CodeTTL
	if err := s.appCtx.RedisCache.StoreVerificationCode(ctx, email, code, ttl); err != nil {
		return fmt.Errorf("storing verification code: %w", err)
	}
	return s.sender.SendCode(ctx, email, code)
}

// VerifyCode checks a submitted code. A match consumes the code, so each
// issued code verifies at most once.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	stored, found, err := s.appCtx.RedisCache.GetVerificationCode(ctx, email)
	if err != nil {
		return false, err
	}
	if !found || stored != strings.TrimSpace(code) {
		return false, nil
	}
	if err := s.appCtx.RedisCache.DeleteVerificationCode(ctx, email); err != nil {
		s.appCtx.Logger.Warn("verification code delete failed", "email", email, "error", err)
	}
	return true, nil
}

// SubmitPhoto files a photo-verification request, moving the profile to
// pending review.
func (s *Service) SubmitPhoto(ctx context.Context, userID, photoURL string) error {
	if err := authz.RequireActor(userID); err != nil {
		return err
	}
	if strings.TrimSpace(photoURL) == "" {
		return fmt.Errorf("%w: photo url must not be empty", domain.ErrInvalidArgument)
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return err
	}
	return s.profiles.UpdateFields(ctx, userID, map[string]interface{}{
		"verification_status":    db.VerificationPending,
		"verification_photo_url": photoURL,
	})
}

// Approve marks a pending profile verified. Admin only.
func (s *Service) Approve(ctx context.Context, actorID, userID string) error {
	return s.review(ctx, actorID, userID, db.VerificationVerified)
}

// Reject declines a pending verification. Admin only.
func (s *Service) Reject(ctx context.Context, actorID, userID string) error {
	return s.review(ctx, actorID, userID, db.VerificationRejected)
}

func (s *Service) review(ctx context.Context, actorID, userID, status string) error {
	if err := authz.RequireAdmin(ctx, s.profiles, actorID); err != nil {
		return err
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.profiles.UpdateFields(ctx, userID, map[string]interface{}{
		"verification_status": status,
	}); err != nil {
		return err
	}
	s.appCtx.Logger.Info("verification reviewed", "user", userID, "status", status, "by", actorID)
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
