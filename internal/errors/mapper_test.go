package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/leomatch/internal/errors"
	"github.com/oggyb/leomatch/internal/flow"
	"github.com/oggyb/leomatch/internal/match"
	"github.com/oggyb/leomatch/internal/profile"
	"github.com/oggyb/leomatch/internal/utils/pagination"
)

func TestMapCodes(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{match.ErrSelfLike, codes.InvalidArgument},
		{fmt.Errorf("%w: -3", match.ErrInvalidQuantity), codes.InvalidArgument},
		{profile.ErrInvalidUpdate, codes.InvalidArgument},
		{flow.ErrInvalidInput, codes.InvalidArgument},
		{pagination.ErrInvalidToken, codes.InvalidArgument},
		{match.ErrProfileIncomplete, codes.FailedPrecondition},
		{match.ErrInsufficientCredits, codes.FailedPrecondition},
		{profile.ErrPremiumRequired, codes.PermissionDenied},
		{fmt.Errorf("%w: 9", match.ErrUnknownProfile), codes.NotFound},
		{profile.ErrNotFound, codes.NotFound},
		{gorm.ErrRecordNotFound, codes.NotFound},
		{fmt.Errorf("%w: like: deadlock", match.ErrStorageUnavailable), codes.Unavailable},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, status.Code(svcErr.Map(tc.err)), tc.err.Error())
	}
}

func TestMapPassesStatusThrough(t *testing.T) {
	assert.Nil(t, svcErr.Map(nil))

	in := svcErr.Unauthenticated("no token")
	assert.Equal(t, in, svcErr.Map(in))
	assert.Equal(t, codes.InvalidArgument, status.Code(svcErr.InvalidArgument("bad")))
}
