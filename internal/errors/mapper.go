// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/leomatch/internal/flow"
	"github.com/oggyb/leomatch/internal/match"
	"github.com/oggyb/leomatch/internal/profile"
	"github.com/oggyb/leomatch/internal/utils/pagination"
)

// Map converts domain/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, match.ErrSelfLike),
		errors.Is(err, match.ErrInvalidQuantity),
		errors.Is(err, profile.ErrInvalidUpdate),
		errors.Is(err, flow.ErrInvalidInput),
		errors.Is(err, flow.ErrUnknownFlow),
		errors.Is(err, pagination.ErrInvalidToken):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, match.ErrProfileIncomplete),
		errors.Is(err, match.ErrInsufficientCredits),
		errors.Is(err, flow.ErrFlowFinished):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, profile.ErrPremiumRequired):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, match.ErrUnknownProfile),
		errors.Is(err, profile.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, match.ErrStorageUnavailable):
		return status.Error(codes.Unavailable, "storage unavailable, try again")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// Unauthenticated creates a gRPC Unauthenticated error.
func Unauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}
