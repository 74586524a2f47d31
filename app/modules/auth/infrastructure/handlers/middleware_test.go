package authhandlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/httpjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret-at-least-32-chars-long!!"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if ok {
			w.Header().Set("X-Actor", claims.ActorID)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireRole(t *testing.T) {
	provider := authjwt.NewProvider(testSecret, "tourney-desk")
	mint := func(role authdomain.Role, ttl time.Duration) string {
		tok, err := provider.GenerateToken(&authdomain.Claims{ActorID: "actor-1", Role: role}, ttl)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantActor  string
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + mint(authdomain.RoleJudge, -time.Minute), wantStatus: http.StatusUnauthorized},
		{name: "insufficient role", header: "Bearer " + mint(authdomain.RoleStaff, time.Hour), wantStatus: http.StatusForbidden},
		{name: "judge allowed", header: "Bearer " + mint(authdomain.RoleJudge, time.Hour), wantStatus: http.StatusNoContent, wantActor: "actor-1"},
		{name: "admin allowed", header: "bearer " + mint(authdomain.RoleAdmin, time.Hour), wantStatus: http.StatusNoContent, wantActor: "actor-1"},
	}

	h := RequireRole(provider, authdomain.RoleJudge)(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantActor, rec.Header().Get("X-Actor"))
			if tt.wantStatus >= 400 {
				var body httpjson.ErrorBody
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body.Error)
			}
		})
	}
}

func TestRequireRole_NilProviderPassesThrough(t *testing.T) {
	h := RequireRole(nil, authdomain.RoleAdmin)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Every(time.Hour), 2)
	h := RateLimitMiddleware(limiter)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.5:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.6:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 2, limiter.Len())
}

func TestIPRateLimiter_PrunesIdleEntries(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1)
	base := time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }
	for i := 0; i <= cleanupThreshold; i++ {
		limiter.Limiter(string(rune('a'+i%26)) + time.Duration(i).String())
	}
	require.Equal(t, cleanupThreshold+1, limiter.Len())

	limiter.now = func() time.Time { return base.Add(maxIdleAge + time.Second) }
	limiter.Limiter("fresh")
	assert.Equal(t, 1, limiter.Len())
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://desk.example"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://desk.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://desk.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
