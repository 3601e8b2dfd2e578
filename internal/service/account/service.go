package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
)

// Service handles registration and credential checks.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
}

// NewService creates an account service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
	}
}

// RegisterParams describe a new account.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Gender   string
	City     string
}

// Register creates a profile with a hashed password. The email is stored
// lowercase; a taken email surfaces as ErrInvalidArgument rather than
// leaking which addresses exist as a distinct error shape.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*db.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrInvalidArgument)
	}
	if len(params.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	profile := &db.Profile{
		Email:              email,
		PasswordHash:       string(hash),
		Name:               strings.TrimSpace(params.Name),
		Gender:             params.Gender,
		City:               params.City,
		PrivacyMessages:    db.PrivacyMessagesAll,
		VerificationStatus: db.VerificationNotVerified,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrInvalidArgument)
		}
		return nil, err
	}

	s.appCtx.Logger.Info("account registered", "user", profile.ID)
	return profile, nil
}

// Authenticate checks the credentials. A wrong email and a wrong password
// return the same error; banned accounts are rejected after the password
// check so the ban is only disclosed to the account holder.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*db.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	profile, err := s.profiles.GetByEmail(ctx, email)
	if domain.IsNotFound(err) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if profile.IsBanned {
		return nil, domain.ErrBanned
	}
	return profile, nil
}
