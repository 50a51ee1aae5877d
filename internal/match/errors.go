package match

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/leomatch/internal/utils/pagination"
)

// Caller-input errors. They are returned as is and never retried.
var (
	ErrProfileIncomplete   = errors.New("profile is incomplete")
	ErrSelfLike            = errors.New("cannot like own profile")
	ErrUnknownProfile      = errors.New("unknown profile")
	ErrInsufficientCredits = errors.New("insufficient super-like credits")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
)

// ErrStorageUnavailable wraps the last storage failure once retries are exhausted.
var ErrStorageUnavailable = errors.New("storage unavailable")

// retryable reports whether err is a storage failure worth another attempt.
func retryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrProfileIncomplete),
		errors.Is(err, ErrSelfLike),
		errors.Is(err, ErrUnknownProfile),
		errors.Is(err, ErrInsufficientCredits),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, pagination.ErrInvalidToken),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
