package checkinhandlers

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
	"time"

	authdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/handlers"
	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/httpjson"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var t0 = time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC)

func newTestHandlers(svc *FakeService) *CheckInHandlers {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCheckInHandlers(svc, logger, noop.NewTracerProvider().Tracer("test"))
}

func newMux(h *CheckInHandlers) http.Handler {
	r := chi.NewRouter()
	r.Post("/tokens", h.HandleIssue)
	r.Get("/tokens/{value}", h.HandleValidate)
	r.Post("/tokens/{value}/refresh", h.HandleRefresh)
	r.Post("/tokens/{value}/redeem", h.HandleRedeem)
	r.Post("/tokens/{value}/expire", h.HandleExpire)
	r.Get("/tournaments/{id}/records", h.HandleHistory)
	r.Get("/tournaments/{id}/chart.png", h.HandleChart)
	return r
}

func TestHandleRedeemRequested(t *testing.T) {
	record := &checkindomain.CheckInRecord{PlayerID: "p1", TournamentID: "t1", CheckInTime: t0}

	tests := []struct {
		name      string
		redeem    func(ctx context.Context, value, scannedBy string) (results.OperationResult[*checkindomain.CheckInRecord, error], error)
		replyTo   string
		wantTopic string
		wantReply checkindomain.RedeemResultPayloadV1
		wantErr   bool
	}{
		{
			name: "success",
			redeem: func(context.Context, string, string) (results.OperationResult[*checkindomain.CheckInRecord, error], error) {
				return results.SuccessResult[*checkindomain.CheckInRecord, error](record), nil
			},
			wantTopic: checkindomain.RedeemResultV1,
			wantReply: checkindomain.RedeemResultPayloadV1{Success: true, DeviceID: "door-1", Record: record},
		},
		{
			name: "already checked in replies with reason",
			redeem: func(context.Context, string, string) (results.OperationResult[*checkindomain.CheckInRecord, error], error) {
				return results.FailureResult[*checkindomain.CheckInRecord, error](checkindomain.ErrAlreadyCheckedIn), nil
			},
			replyTo:   "scanner.door-1.reply",
			wantTopic: "scanner.door-1.reply",
			wantReply: checkindomain.RedeemResultPayloadV1{
				Reason:   checkindomain.ReasonAlreadyCheckedIn,
				Message:  checkindomain.ErrAlreadyCheckedIn.Error(),
				DeviceID: "door-1",
			},
		},
		{
			name: "infrastructure error is returned for redelivery",
			redeem: func(context.Context, string, string) (results.OperationResult[*checkindomain.CheckInRecord, error], error) {
				return results.OperationResult[*checkindomain.CheckInRecord, error]{}, errors.New("db down")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeService()
			svc.RedeemFunc = tt.redeem
			h := newTestHandlers(svc)

			ctx := context.Background()
			if tt.replyTo != "" {
				ctx = context.WithValue(ctx, handlerwrapper.CtxKeyReplyTo, tt.replyTo)
			}

			out, err := h.HandleRedeemRequested(ctx, &checkindomain.RedeemRequestedPayloadV1{
				TokenValue: "tok", ScannedBy: "staff-1", DeviceID: "door-1",
			})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tt.wantTopic, out[0].Topic)
			assert.Equal(t, &tt.wantReply, out[0].Payload)
			assert.Equal(t, []string{"Redeem"}, svc.Trace())
		})
	}
}

func TestHTTP_FailureStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", checkindomain.ErrTokenNotFound, http.StatusNotFound, checkindomain.ReasonNotFound},
		{"expired", checkindomain.ErrTokenExpired, http.StatusGone, checkindomain.ReasonExpired},
		{"already", checkindomain.ErrAlreadyCheckedIn, http.StatusConflict, checkindomain.ReasonAlreadyCheckedIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeService()
			svc.RedeemFunc = func(context.Context, string, string) (results.OperationResult[*checkindomain.CheckInRecord, error], error) {
				return results.FailureResult[*checkindomain.CheckInRecord, error](tt.err), nil
			}

			rec := httptest.NewRecorder()
			newMux(newTestHandlers(svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tokens/abc/redeem", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body httpjson.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
		})
	}
}

func TestHTTP_IssueAndValidate(t *testing.T) {
	svc := NewFakeService()
	svc.IssueFunc = func(_ context.Context, playerID, tournamentID, division string) (tokenResult, error) {
		return results.SuccessResult[*checkindomain.Token, error](
			checkindomain.NewToken("tok-1", playerID, tournamentID, division, t0, time.Minute)), nil
	}
	svc.ValidateFunc = func(_ context.Context, value string) (results.OperationResult[*checkindomain.Validation, error], error) {
		v := checkindomain.Validate(nil, t0)
		return results.SuccessResult[*checkindomain.Validation, error](&v), nil
	}
	mux := newMux(newTestHandlers(svc))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tokens",
		strings.NewReader(`{"player_id":"p1","tournament_id":"t1","division":"masters"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var token checkindomain.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, "tok-1", token.Value)
	assert.Equal(t, t0.Add(time.Minute), token.ExpiresAt.UTC())
	assert.Equal(t, checkindomain.StatusPending, token.Status)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tokens/tok-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var v checkindomain.Validation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.False(t, v.Valid)
	assert.Equal(t, checkindomain.ReasonNotFound, v.Reason)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tokens", strings.NewReader(`{"nope":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, []string{"Issue", "Validate"}, svc.Trace())
}

func TestHTTP_RedeemDefaultsScannerToActor(t *testing.T) {
	svc := NewFakeService()
	var gotScanner string
	svc.RedeemFunc = func(_ context.Context, value, scannedBy string) (results.OperationResult[*checkindomain.CheckInRecord, error], error) {
		gotScanner = scannedBy
		return results.SuccessResult[*checkindomain.CheckInRecord, error](&checkindomain.CheckInRecord{TokenValue: value}), nil
	}
	mux := newMux(newTestHandlers(svc))

	req := httptest.NewRequest(http.MethodPost, "/tokens/tok-9/redeem", nil)
	req = req.WithContext(authhandlers.ContextWithClaims(req.Context(), &authdomain.Claims{ActorID: "staff-4", Role: authdomain.RoleStaff}))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff-4", gotScanner)

	req = httptest.NewRequest(http.MethodPost, "/tokens/tok-9/redeem", strings.NewReader(`{"scanned_by":"door-2"}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "door-2", gotScanner)
}

func TestHTTP_InternalError(t *testing.T) {
	svc := NewFakeService()
	svc.ExpireFunc = func(context.Context, string) (tokenResult, error) {
		return tokenResult{}, errors.New("redis unavailable")
	}

	rec := httptest.NewRecorder()
	newMux(newTestHandlers(svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tokens/x/expire", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestHTTP_Chart(t *testing.T) {
	svc := NewFakeService()
	svc.ChartFunc = func(_ context.Context, tournamentID string) ([]byte, error) {
		return []byte("\x89PNG" + tournamentID), nil
	}

	rec := httptest.NewRecorder()
	newMux(newTestHandlers(svc)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/t1/chart.png", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNGt1", rec.Body.String())
}
