package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/leomatch/internal/metrics"
	"github.com/oggyb/leomatch/internal/server"
)

const adminMethod = "/leomatch.matchmaking.v1.Matchmaking/PurchaseCredits"

func okHandler(context.Context, any) (any, error) { return "ok", nil }

func callWithToken(t *testing.T, auth *server.AdminAuth, method, header string) error {
	t.Helper()
	ctx := context.Background()
	if header != "" {
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", header))
	}
	_, err := auth.UnaryInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, okHandler)
	return err
}

func TestAdminAuth(t *testing.T) {
	hash, err := server.HashToken("s3cret")
	require.NoError(t, err)
	auth := server.NewAdminAuth(hash, adminMethod)

	assert.NoError(t, callWithToken(t, auth, adminMethod, "Bearer s3cret"))
	assert.NoError(t, callWithToken(t, auth, "/leomatch.matchmaking.v1.Matchmaking/Like", ""))

	for _, header := range []string{"", "s3cret", "Bearer ", "Bearer wrong"} {
		err := callWithToken(t, auth, adminMethod, header)
		assert.Equal(t, codes.Unauthenticated, status.Code(err), "header %q", header)
	}
}

func TestAdminAuthDisabledWithoutHash(t *testing.T) {
	auth := server.NewAdminAuth("", adminMethod)
	err := callWithToken(t, auth, adminMethod, "Bearer anything")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ic := server.LoggingInterceptor(log)
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Method"}

	resp, err := ic(context.Background(), nil, info, okHandler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	boom := status.Error(codes.NotFound, "nope")
	_, err = ic(context.Background(), nil, info, func(context.Context, any) (any, error) { return nil, boom })
	assert.Equal(t, boom, err)
}

func TestOpsRouterHealth(t *testing.T) {
	healthy := server.NewOpsRouter(map[string]server.HealthCheck{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["redis"])

	degraded := server.NewOpsRouter(map[string]server.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	degraded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestOpsRouterMetrics(t *testing.T) {
	metrics.MatchesCreatedTotal.Add(0) // make sure the collector is registered

	r := server.NewOpsRouter(nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "leomatch_engine_matches_created_total"))
}
