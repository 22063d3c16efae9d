package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrierwatch/carrierwatch/internal/aggregator"
	"github.com/carrierwatch/carrierwatch/internal/api"
	"github.com/carrierwatch/carrierwatch/internal/event"
)

const testSigningKey = "test-signing-key"

func seededService(t *testing.T) *aggregator.Service {
	t.Helper()
	svc := aggregator.NewService(aggregator.ServiceConfig{Logger: zerolog.Nop()})

	now := time.Now().UTC()
	svc.OnNodeStatus(context.Background(), event.NodeStatus{
		NodeID:       "n1",
		ProviderHint: "vzn",
		State:        "CA",
		ControlOK:    false,
		Presence:     event.PresenceOnline,
		Ts:           now,
	}, now)
	return svc
}

func newTestRouter(t *testing.T, svc *aggregator.Service) http.Handler {
	t.Helper()
	return api.NewRouter(api.RouterConfig{
		Version:         "test",
		BuildTime:       "now",
		Logger:          zerolog.Nop(),
		Service:         svc,
		AdminSigningKey: testSigningKey,
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, seededService(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestRouter_ReadyReflectsDependencies(t *testing.T) {
	ready := false
	router := api.NewRouter(api.RouterConfig{
		Logger:  zerolog.Nop(),
		Service: seededService(t),
		Ready:   func() bool { return ready },
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = true
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ListProviders(t *testing.T) {
	router := newTestRouter(t, seededService(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/providers", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Providers []aggregator.Assessment `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Providers, 1)
	assert.Equal(t, "vzn", body.Providers[0].Provider)
	assert.Equal(t, aggregator.ScopeLocal, body.Providers[0].Scope)
}

func TestRouter_GetProvider(t *testing.T) {
	router := newTestRouter(t, seededService(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/providers/vzn", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var assessment aggregator.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assessment))
	assert.Equal(t, 1, assessment.ImpactedCount)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/providers/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestRouter_ProviderHistory(t *testing.T) {
	router := newTestRouter(t, seededService(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/providers/vzn/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Provider string        `json:"provider"`
		Events   []event.Scope `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "vzn", body.Provider)
	require.Len(t, body.Events, 1)
	assert.Equal(t, event.TypeScope, body.Events[0].Type)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/providers/vzn/history?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/providers/vzn/history?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	svc := seededService(t)
	router := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/providers/vzn/reset", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/providers/vzn/reset", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/admin/providers/vzn/reset", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, ok := svc.Get("vzn")
	assert.False(t, ok, "assessment should be cleared by the reset")
}

func TestRouter_AdminDisabledWithoutKey(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Logger:  zerolog.Nop(),
		Service: seededService(t),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/admin/providers/vzn/reset", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_StreamOnlyWhenConfigured(t *testing.T) {
	router := newTestRouter(t, seededService(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stream", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
