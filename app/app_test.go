package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	authdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/audit"
	"github.com/Black-And-White-Club/tourney-desk/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
http:
  address: "127.0.0.1:0"
storage:
  backend: memory
jwt:
  secret: app-test-secret
directory:
  players:
    p1: Ada Lovelace
  tournaments:
    t1: Spring Open
observability:
  environment: test
  log_level: warn
`

func newTestApp(t *testing.T) *App {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	a, err := NewApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func do(a *App, method, target, body, bearer string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.HTTP.ServeHTTP(rec, req)
	return rec
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.ObservabilityConfig
		level slog.Level
	}{
		{name: "debug in development", cfg: config.ObservabilityConfig{Environment: "development", LogLevel: "debug"}, level: slog.LevelDebug},
		{name: "warn in production", cfg: config.ObservabilityConfig{Environment: "production", LogLevel: "warn"}, level: slog.LevelWarn},
		{name: "unknown level falls back to info", cfg: config.ObservabilityConfig{LogLevel: "loud"}, level: slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.cfg)
			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.level))
			assert.False(t, logger.Enabled(ctx, tt.level-1))
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestApp(t)

	assert.Equal(t, http.StatusNoContent, do(a, http.MethodGet, "/healthz", "", "").Code)

	rec := do(a, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCheckInThroughHTTP(t *testing.T) {
	a := newTestApp(t)

	rec := do(a, http.MethodPost, "/api/checkin/tokens", `{"player_id":"p1","tournament_id":"t1","division":"open"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var token struct {
		Value string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.NotEmpty(t, token.Value)

	redeemPath := "/api/checkin/tokens/" + token.Value + "/redeem"
	assert.Equal(t, http.StatusUnauthorized, do(a, http.MethodPost, redeemPath, "", "").Code)

	player, err := a.Auth.Service().MintToken(context.Background(), "p9", authdomain.RolePlayer, 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(a, http.MethodPost, redeemPath, "", player).Code)

	staff, err := a.Auth.Service().MintToken(context.Background(), "desk-1", authdomain.RoleStaff, 0)
	require.NoError(t, err)
	rec = do(a, http.MethodPost, redeemPath, "", staff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")

	rec = do(a, http.MethodGet, "/api/audit/"+token.Value, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []audit.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "redeemed", entries[1].Action)
	assert.Equal(t, "desk-1", entries[1].ActorID)
}

func TestJudgeGateOnDisputeResolution(t *testing.T) {
	a := newTestApp(t)

	rec := do(a, http.MethodPost, "/api/slips", `{"tournament_id":"t1","round":1,"table":2,"player1":{"id":"p1"},"player2":{"id":"p2"}}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var slip struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slip))

	resolvePath := "/api/slips/" + slip.ID + "/disputes/resolve"
	staff, err := a.Auth.Service().MintToken(context.Background(), "desk-1", authdomain.RoleStaff, 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(a, http.MethodPost, resolvePath, `{"resolution":"x"}`, staff).Code)
}
