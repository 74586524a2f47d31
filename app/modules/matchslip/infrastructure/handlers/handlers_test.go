package matchsliphandlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/handlers"
	matchslipservice "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/application"
	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	matchslippolicy "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/policy"
	matchslipdb "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/clock"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/httpjson"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var t0 = time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMux(t *testing.T, registry matchslipdb.Registry) http.Handler {
	t.Helper()
	policy := matchslippolicy.NewStaticPolicy([]string{"regionals"})
	svc := matchslipservice.NewMatchSlipService(
		registry, nil, nil, policy, policy, nil,
		clock.NewFakeClock(t0), matchslipservice.Options{},
		quietLogger(), nil, noop.NewTracerProvider().Tracer("test"),
	)
	h := NewMatchSlipHandlers(svc, quietLogger(), noop.NewTracerProvider().Tracer("test"))

	r := chi.NewRouter()
	r.Post("/slips", h.HandleCreateSlip)
	r.Post("/slips/import", h.HandleImport)
	r.Get("/slips/{id}", h.HandleGetSlip)
	r.Get("/slips/{id}/methods", h.HandleSignatureMethods)
	r.Post("/slips/{id}/games", h.HandleSubmitGame)
	r.Post("/slips/{id}/signatures", h.HandleSubmitSignature)
	r.Post("/slips/{id}/paper", h.HandleSubmitPaper)
	r.Post("/slips/{id}/paper/attest", h.HandleAttestPaper)
	r.Post("/slips/{id}/disputes", h.HandleRaiseDispute)
	r.Post("/slips/{id}/disputes/resolve", h.HandleResolveDispute)
	r.Get("/tournaments/{id}/slips", h.HandleListSlips)
	r.Get("/tournaments/{id}/slips/export.xlsx", h.HandleExport)
	r.Get("/tournaments/{id}/alternatives", h.HandleAlternatives)
	return r
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func createSlip(t *testing.T, mux http.Handler, tournament string) matchslipdomain.Slip {
	t.Helper()
	rec := do(t, mux, http.MethodPost, "/slips",
		`{"tournament_id":"`+tournament+`","round":2,"table":7,"player1":{"id":"p1","name":"Ada"},"player2":{"id":"p2","name":"Grace"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var slip matchslipdomain.Slip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slip))
	return slip
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpjson.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestFailureStatus(t *testing.T) {
	tests := map[string]int{
		matchslipdomain.ReasonNotFound:          http.StatusNotFound,
		matchslipdomain.ReasonAlreadyCompleted:  http.StatusConflict,
		matchslipdomain.ReasonDuplicateGame:     http.StatusConflict,
		matchslipdomain.ReasonNoDispute:         http.StatusConflict,
		matchslipdomain.ReasonDisputeClosed:     http.StatusConflict,
		matchslipdomain.ReasonInvalidTransition: http.StatusConflict,
		matchslipdomain.ReasonNotAuthorized:     http.StatusForbidden,
		matchslipdomain.ReasonPolicyViolation:   http.StatusUnprocessableEntity,
		matchslipdomain.ReasonInvalidFallback:   http.StatusUnprocessableEntity,
		matchslipdomain.ReasonInvalidInput:      http.StatusUnprocessableEntity,
		"something_else":                        http.StatusInternalServerError,
	}
	for reason, want := range tests {
		assert.Equal(t, want, failureStatus(reason), reason)
	}
}

func TestHTTP_SignedSlipFlow(t *testing.T) {
	mux := newTestMux(t, matchslipdb.NewMemoryRegistry())
	slip := createSlip(t, mux, "weekly")
	assert.NotEmpty(t, slip.QRCode)

	rec := do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/games",
		`{"game_number":1,"winner_id":"p1","score":"2-0","submitted_by":"p1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/games",
		`{"game_number":1,"winner_id":"p2","score":"0-2","submitted_by":"p2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, matchslipdomain.ReasonDuplicateGame, errorCode(t, rec))

	for _, p := range []string{"p1", "p2"} {
		rec = do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/signatures",
			`{"player_id":"`+p+`","signature_type":"touch","signature_data":"strokes"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = do(t, mux, http.MethodGet, "/slips/"+slip.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got matchslipdomain.Slip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, matchslipdomain.StatusCompleted, got.Status)
	assert.Equal(t, "p1", got.WinnerID)

	rec = do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/signatures",
		`{"player_id":"p1","signature_type":"pin","signature_data":"1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, matchslipdomain.ReasonAlreadyCompleted, errorCode(t, rec))
}

func TestHTTP_GameDurationUnits(t *testing.T) {
	mux := newTestMux(t, matchslipdb.NewMemoryRegistry())
	slip := createSlip(t, mux, "weekly")

	rec := do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/games",
		`{"game_number":1,"winner_id":"p1","score":"2-0","duration":1800,"submitted_by":"p1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/games",
		`{"game_number":2,"winner_id":"p2","score":"1-2","duration":"25m30s","submitted_by":"p2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/games",
		`{"game_number":3,"winner_id":"p1","score":"2-1","duration":"soon","submitted_by":"p1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/slips/"+slip.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got matchslipdomain.Slip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Games, 2)
	assert.Equal(t, 30*time.Minute, got.Games[0].Duration)
	assert.Equal(t, 25*time.Minute+30*time.Second, got.Games[1].Duration)
}

func TestHTTP_PhoneBanUsesRequestUserAgent(t *testing.T) {
	mux := newTestMux(t, matchslipdb.NewMemoryRegistry())
	slip := createSlip(t, mux, "regionals")

	rec := do(t, mux, http.MethodGet, "/slips/"+slip.ID+"/methods", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["pin","digital"]`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/slips/"+slip.ID+"/signatures",
		strings.NewReader(`{"player_id":"p1","signature_type":"pin","signature_data":"1234"}`))
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, matchslipdomain.ReasonPolicyViolation, errorCode(t, rec))

	rec = do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/paper/attest",
		`{"submitted_by":"p1","paper_slip_number":"1001","judge_signature":"judge-2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/tournaments/regionals/alternatives?operation=check_in", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var methods []matchslippolicy.AlternativeMethod
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &methods))
	require.Len(t, methods, 1)
	assert.Equal(t, "staff_scan", methods[0].Method)
}

func TestHTTP_PaperRejectedWithoutBan(t *testing.T) {
	mux := newTestMux(t, matchslipdb.NewMemoryRegistry())
	slip := createSlip(t, mux, "weekly")

	rec := do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/paper", `{"submitted_by":"p1","paper_slip_number":"9"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, matchslipdomain.ReasonInvalidFallback, errorCode(t, rec))
}

func TestHTTP_PaperJudgeSignatureNeedsAttestRoute(t *testing.T) {
	mux := newTestMux(t, matchslipdb.NewMemoryRegistry())
	slip := createSlip(t, mux, "regionals")

	rec := do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/paper",
		`{"submitted_by":"p1","paper_slip_number":"42","judge_signature":"anything"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, matchslipdomain.ReasonNotAuthorized, errorCode(t, rec))

	rec = do(t, mux, http.MethodGet, "/slips/"+slip.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got matchslipdomain.Slip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, matchslipdomain.StatusPending, got.Status)
	assert.Empty(t, got.ReviewedBy)
}

func TestHTTP_AttestPaperUsesBearerJudge(t *testing.T) {
	mux := newTestMux(t, matchslipdb.NewMemoryRegistry())
	slip := createSlip(t, mux, "regionals")

	rec := do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/paper/attest",
		`{"submitted_by":"p1","paper_slip_number":"42"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/slips/"+slip.ID+"/paper/attest",
		strings.NewReader(`{"submitted_by":"p1","paper_slip_number":"42","judge_signature":"spoofed"}`))
	req = req.WithContext(authhandlers.ContextWithClaims(req.Context(), &authdomain.Claims{ActorID: "judge-7", Role: authdomain.RoleJudge}))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/slips/"+slip.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got matchslipdomain.Slip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, matchslipdomain.StatusCompleted, got.Status)
	assert.Equal(t, "judge-7", got.ReviewedBy)
}

func TestHTTP_Disputes(t *testing.T) {
	mux := newTestMux(t, matchslipdb.NewMemoryRegistry())
	slip := createSlip(t, mux, "weekly")

	rec := do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/disputes", `{"raised_by":"p9","reason":"score"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/disputes/resolve", `{"judge_id":"j1","resolution":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, matchslipdomain.ReasonNoDispute, errorCode(t, rec))

	rec = do(t, mux, http.MethodPost, "/slips/"+slip.ID+"/disputes", `{"raised_by":"p2","reason":"score","evidence":["photo"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The bearer identity wins over the body.
	req := httptest.NewRequest(http.MethodPost, "/slips/"+slip.ID+"/disputes/resolve",
		strings.NewReader(`{"judge_id":"spoofed","resolution":"replay game 1"}`))
	req = req.WithContext(authhandlers.ContextWithClaims(req.Context(), &authdomain.Claims{ActorID: "judge-3", Role: authdomain.RoleJudge}))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var d matchslipdomain.Dispute
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "judge-3", d.AssignedJudge)
	assert.Equal(t, matchslipdomain.DisputeResolved, d.Status)
}

func TestHTTP_BadBodies(t *testing.T) {
	mux := newTestMux(t, matchslipdb.NewMemoryRegistry())

	rec := do(t, mux, http.MethodPost, "/slips", `{"unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, "/slips", `{"tournament_id":"t","round":1,"table":1,"player1":{"id":"a"},"player2":{"id":"a"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, mux, http.MethodGet, "/slips/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_ListExportAndImport(t *testing.T) {
	mux := newTestMux(t, matchslipdb.NewMemoryRegistry())
	slip := createSlip(t, mux, "regionals")
	createSlip(t, mux, "regionals")

	rec := do(t, mux, http.MethodGet, "/tournaments/regionals/slips", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var slips []matchslipdomain.Slip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slips))
	assert.Len(t, slips, 2)

	rec = do(t, mux, http.MethodGet, "/tournaments/regionals/slips/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "batch.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("slip_id,submitted_by,paper_slip_number,judge_signature\n" + slip.ID + ",p1,1001,judge-1\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/slips/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report matchslipservice.ImportReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 0, report.Rejected)

	rec = do(t, mux, http.MethodPost, "/slips/import", "not multipart")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type brokenRegistry struct {
	*matchslipdb.MemoryRegistry
}

func (brokenRegistry) Get(context.Context, string) (*matchslipdomain.Slip, error) {
	return nil, errors.New("connection refused")
}

func TestHTTP_InternalErrorHidesDetail(t *testing.T) {
	mux := newTestMux(t, brokenRegistry{matchslipdb.NewMemoryRegistry()})

	rec := do(t, mux, http.MethodGet, "/slips/abc", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", errorCode(t, rec))
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
