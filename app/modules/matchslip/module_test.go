package matchslip

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	matchslippolicy "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/policy"
	matchslipdb "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-desk/config"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPolicy(t *testing.T) {
	static := newPolicy(config.MatchSlipConfig{
		Policy: config.PolicyConfig{PhoneBannedTournaments: []string{"regionals"}},
	}, quietLogger())
	assert.IsType(t, &matchslippolicy.StaticPolicy{}, static)

	banned, err := static.IsPhoneBanned(context.Background(), "regionals")
	require.NoError(t, err)
	assert.True(t, banned)

	remote := newPolicy(config.MatchSlipConfig{
		Policy: config.PolicyConfig{URL: "http://127.0.0.1:1", Timeout: 50 * time.Millisecond, PhoneBannedTournaments: []string{"regionals"}},
	}, quietLogger())
	assert.IsType(t, &matchslippolicy.HTTPPolicy{}, remote)

	// Unreachable remote falls back to the static list.
	banned, err = remote.IsPhoneBanned(context.Background(), "regionals")
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestNewMatchSlipModule_MountsRoutes(t *testing.T) {
	cfg := &config.Config{}
	cfg.Directory.Players = map[string]string{"p1": "Ada"}
	r := chi.NewRouter()

	m, err := NewMatchSlipModule(context.Background(), Dependencies{
		Config:   cfg,
		Logger:   quietLogger(),
		Tracer:   noop.NewTracerProvider().Tracer("test"),
		Registry: matchslipdb.NewMemoryRegistry(),
		HTTP:     r,
	})
	require.NoError(t, err)
	require.NotNil(t, m.Service)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/slips",
		strings.NewReader(`{"tournament_id":"t1","round":1,"table":1,"player1":{"id":"p1"},"player2":{"id":"p2"}}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Ada"`)
	assert.Contains(t, rec.Body.String(), `"name":"p2"`)

	assert.NoError(t, m.Close())
}

func TestNewMatchSlipModule_RequiresRegistry(t *testing.T) {
	_, err := NewMatchSlipModule(context.Background(), Dependencies{Config: &config.Config{}, Logger: quietLogger()})
	assert.Error(t, err)
}
