package matchslippolicy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/sony/gobreaker"
)

// ErrPolicyUnavailable is returned when the remote lookup fails and no
// fallback is configured.
var ErrPolicyUnavailable = errors.New("venue policy service unavailable")

type policyResponse struct {
	PhoneBanned bool `json:"phone_banned"`
}

// HTTPPolicy asks a remote venue service whether phones are banned. Calls go
// through a circuit breaker; when the call fails or the breaker is open the
// fallback policy answers instead.
type HTTPPolicy struct {
	baseURL  string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	fallback DevicePolicy
	logger   *slog.Logger
}

// NewHTTPPolicy creates a remote policy client.
func NewHTTPPolicy(baseURL string, timeout time.Duration, fallback DevicePolicy, logger *slog.Logger) *HTTPPolicy {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &HTTPPolicy{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
		logger:   logger,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "venue-policy",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				attr.String("breaker", name),
				attr.String("from", from.String()),
				attr.String("to", to.String()),
			)
		},
	})
	return p
}

// State exposes the breaker state.
func (p *HTTPPolicy) State() gobreaker.State {
	return p.breaker.State()
}

func (p *HTTPPolicy) IsPhoneBanned(ctx context.Context, tournamentID string) (bool, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, tournamentID)
	})
	if err == nil {
		return out.(bool), nil
	}

	p.logger.WarnContext(ctx, "Venue policy lookup failed",
		attr.ExtractCorrelationID(ctx),
		attr.String("tournament_id", tournamentID),
		attr.Error(err),
	)
	if p.fallback == nil {
		return false, fmt.Errorf("%w: %v", ErrPolicyUnavailable, err)
	}
	return p.fallback.IsPhoneBanned(ctx, tournamentID)
}

func (p *HTTPPolicy) fetch(ctx context.Context, tournamentID string) (bool, error) {
	endpoint := p.baseURL + "/tournaments/" + url.PathEscape(tournamentID) + "/device-policy"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("policy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("policy service returned %d", resp.StatusCode)
	}

	var body policyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode policy response: %w", err)
	}
	return body.PhoneBanned, nil
}

func (p *HTTPPolicy) GetAlternativeMethods(ctx context.Context, tournamentID, operation string) ([]AlternativeMethod, error) {
	banned, err := p.IsPhoneBanned(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return AlternativesFor(banned, operation), nil
}

var (
	_ DevicePolicy = (*HTTPPolicy)(nil)
	_ Advisor      = (*HTTPPolicy)(nil)
)
