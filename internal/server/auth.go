package server

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	svcErr "github.com/oggyb/leomatch/internal/errors"
)

// AdminAuth guards admin methods with a bearer token checked against a
// bcrypt hash. Other methods pass through untouched.
type AdminAuth struct {
	hash    []byte
	methods map[string]bool
}

// NewAdminAuth protects the given full method names. An empty hash
// rejects every admin call.
func NewAdminAuth(tokenHash string, adminMethods ...string) *AdminAuth {
	methods := make(map[string]bool, len(adminMethods))
	for _, m := range adminMethods {
		methods[m] = true
	}
	return &AdminAuth{hash: []byte(tokenHash), methods: methods}
}

// HashToken is used by operators to produce ADMIN_TOKEN_HASH.
func HashToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	return string(h), err
}

func (a *AdminAuth) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !a.methods[info.FullMethod] {
			return handler(ctx, req)
		}
		if err := a.check(ctx); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func (a *AdminAuth) check(ctx context.Context) error {
	if len(a.hash) == 0 {
		return svcErr.Unauthenticated("admin api is disabled")
	}
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return svcErr.Unauthenticated("missing authorization metadata")
	}
	token, ok := strings.CutPrefix(values[0], "Bearer ")
	if !ok || token == "" {
		return svcErr.Unauthenticated("authorization must be a bearer token")
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(token)) != nil {
		return svcErr.Unauthenticated("invalid admin token")
	}
	return nil
}
