package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopledger-backend/pkg/enums"
	"github.com/angelmondragon/shopledger-backend/pkg/types"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func limitedHandler(store *fakeLimiter, limit int64) http.Handler {
	policy := NewWriteRatePolicy(limit, time.Minute)
	return RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func actorRequest(method string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/orders", strings.NewReader("{}"))
	ctx := WithActor(req.Context(), uuid.NewString(), enums.MemberRoleStaff.String())
	return req.WithContext(ctx)
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	handler := limitedHandler(&fakeLimiter{}, 2)
	req := actorRequest(http.MethodPost)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	handler := limitedHandler(&fakeLimiter{}, 1)
	req := actorRequest(http.MethodPost)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "RATE_LIMIT_EXCEEDED", envelope.Error.Code)
}

func TestRateLimitIgnoresReads(t *testing.T) {
	store := &fakeLimiter{}
	handler := limitedHandler(store, 1)
	req := actorRequest(http.MethodGet)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	require.Empty(t, store.counts)
}

func TestRateLimitScopesByIPWithoutActor(t *testing.T) {
	store := &fakeLimiter{}
	handler := limitedHandler(store, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{}"))
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Contains(t, store.counts, "write:ip:203.0.113.7")
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := &fakeLimiter{}
	policy := NewWriteRatePolicy(0, 0)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, actorRequest(http.MethodPost))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, store.counts)
}
