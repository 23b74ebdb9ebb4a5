package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/leapstack-labs/leapgate/internal/schema"
	"github.com/leapstack-labs/leapgate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := requestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	}))

	t.Run("propagates client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("assigns uuid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))
	})
}

func TestRequestLogger(t *testing.T) {
	logger, buf := testutil.NewBufferLogger()
	r := chi.NewMux()
	SetupRoutes(r, &fakeGateway{}, RouteOptions{Logger: logger})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"path":"/healthz"`)
	assert.Contains(t, out, `"status":200`)
}

func TestRateLimit(t *testing.T) {
	r := chi.NewMux()
	SetupRoutes(r, &fakeGateway{}, RouteOptions{RateLimit: 0.001, RateBurst: 1})

	first := do(t, r, http.MethodGet, "/schema", "")
	second := do(t, r, http.MethodGet, "/schema", "")
	health := do(t, r, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error": "rate limit exceeded"}`, second.Body.String())
	assert.Equal(t, http.StatusOK, health.Code, "health checks are not rate limited")
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"all origins by default", nil, "http://example.com", "*"},
		{"configured origin", []string{"http://app.local"}, "http://app.local", "http://app.local"},
		{"other origin rejected", []string{"http://app.local"}, "http://evil.local", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewMux()
			SetupRoutes(r, &fakeGateway{}, RouteOptions{CORSOrigins: tt.origins})

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRecoverer(t *testing.T) {
	r := chi.NewMux()
	SetupRoutes(r, panicGateway{&fakeGateway{}}, RouteOptions{})

	rec := do(t, r, http.MethodGet, "/schema", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type panicGateway struct{ *fakeGateway }

func (panicGateway) Schema(context.Context, string, bool) ([]schema.TableDescriptor, error) {
	panic("boom")
}
