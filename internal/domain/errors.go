package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Policy rejections: expected outcomes surfaced to the user, never logged as
// failures. Services translate these into {success:false, reason} results.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSelfLike            = errors.New("cannot like yourself")
	ErrSelfBoost           = errors.New("cannot boost yourself")
	ErrAdminRequired       = errors.New("admin access required")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrAlreadyActivated    = errors.New("payment already activated")
	ErrVIPRequired         = errors.New("active VIP subscription required")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrBanned              = errors.New("account is banned")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// IsPolicy reports whether err is an expected policy rejection rather than an
// infrastructure failure.
func IsPolicy(err error) bool {
	switch {
	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrSelfLike),
		errors.Is(err, ErrSelfBoost),
		errors.Is(err, ErrAdminRequired),
		errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrAlreadyActivated),
		errors.Is(err, ErrVIPRequired),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrBanned),
		errors.Is(err, ErrInvalidArgument):
		return true
	}
	return false
}

// IsNotFound collapses the different not-found shapes (domain sentinels and
// the store's record-not-found) into one check.
func IsNotFound(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, ErrProfileNotFound),
		errors.Is(err, ErrMatchNotFound),
		errors.Is(err, ErrPaymentNotFound):
		return true
	}
	return false
}

// IsDuplicate reports whether err is a unique-constraint violation. Duplicate
// keys are expected, recoverable outcomes here (repeat likes, concurrent
// match creation, repeat promo redemption), not failures.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsCanceled reports whether err stems from the caller abandoning the call.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
