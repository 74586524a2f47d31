package matchsliphandlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	authhandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/handlers"
	matchslipservice "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/application"
	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	matchslippolicy "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/policy"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/httpjson"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

// maxUploadBytes bounds a paper-slip batch upload.
const maxUploadBytes = 8 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MatchSlipHandlers serves the match-slip REST API.
type MatchSlipHandlers struct {
	service matchslipservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewMatchSlipHandlers creates a new MatchSlipHandlers.
func NewMatchSlipHandlers(service matchslipservice.Service, logger *slog.Logger, tracer trace.Tracer) *MatchSlipHandlers {
	return &MatchSlipHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

var _ HTTPHandlers = (*MatchSlipHandlers)(nil)

type resolveRequest struct {
	JudgeID    string `json:"judge_id"`
	Resolution string `json:"resolution"`
}

// failureStatus maps a match-slip failure reason to its HTTP status.
func failureStatus(reason string) int {
	switch reason {
	case matchslipdomain.ReasonNotFound:
		return http.StatusNotFound
	case matchslipdomain.ReasonAlreadyCompleted,
		matchslipdomain.ReasonDuplicateGame,
		matchslipdomain.ReasonNoDispute,
		matchslipdomain.ReasonDisputeClosed,
		matchslipdomain.ReasonInvalidTransition:
		return http.StatusConflict
	case matchslipdomain.ReasonNotAuthorized:
		return http.StatusForbidden
	case matchslipdomain.ReasonPolicyViolation,
		matchslipdomain.ReasonInvalidFallback,
		matchslipdomain.ReasonInvalidInput:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeFailure(w http.ResponseWriter, err error) {
	reason := matchslipdomain.ReasonFor(err)
	if reason == "" {
		reason = "internal"
	}
	httpjson.WriteError(w, failureStatus(reason), reason, err.Error())
}

func badRequest(w http.ResponseWriter, err error) {
	httpjson.WriteError(w, http.StatusBadRequest, matchslipdomain.ReasonInvalidInput, err.Error())
}

func (h *MatchSlipHandlers) writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "Match slip request failed",
		attr.ExtractCorrelationID(r.Context()),
		attr.String("path", r.URL.Path),
		attr.Error(err),
	)
	httpjson.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
}

// respond writes a service outcome. It is generic over the success payload.
func respond[S any](h *MatchSlipHandlers, w http.ResponseWriter, r *http.Request, status int, success *S, failure *error, err error) {
	switch {
	case err != nil:
		h.writeInternal(w, r, err)
	case failure != nil:
		writeFailure(w, *failure)
	default:
		httpjson.Write(w, status, *success)
	}
}

func (h *MatchSlipHandlers) HandleCreateSlip(w http.ResponseWriter, r *http.Request) {
	var req matchslipservice.CreateSlipRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	result, err := h.service.CreateSlip(r.Context(), req)
	respond(h, w, r, http.StatusCreated, result.Success, result.Failure, err)
}

func (h *MatchSlipHandlers) HandleGetSlip(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetSlip(r.Context(), chi.URLParam(r, "id"))
	respond(h, w, r, http.StatusOK, result.Success, result.Failure, err)
}

func (h *MatchSlipHandlers) HandleSignatureMethods(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetAvailableSignatureMethods(r.Context(), chi.URLParam(r, "id"))
	respond(h, w, r, http.StatusOK, result.Success, result.Failure, err)
}

func (h *MatchSlipHandlers) HandleSubmitGame(w http.ResponseWriter, r *http.Request) {
	var req matchslipservice.GameResultRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	result, err := h.service.SubmitGameResult(r.Context(), chi.URLParam(r, "id"), req)
	respond(h, w, r, http.StatusCreated, result.Success, result.Failure, err)
}

// HandleSubmitSignature fills in the device user agent from the request when
// the body leaves it out.
func (h *MatchSlipHandlers) HandleSubmitSignature(w http.ResponseWriter, r *http.Request) {
	var req matchslipservice.SignatureRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.DeviceInfo.UserAgent == "" {
		req.DeviceInfo.UserAgent = r.UserAgent()
	}
	result, err := h.service.SubmitSignature(r.Context(), chi.URLParam(r, "id"), req)
	respond(h, w, r, http.StatusCreated, result.Success, result.Failure, err)
}

// HandleSubmitPaper records an unattested paper slip. A judge attestation
// must go through HandleAttestPaper.
func (h *MatchSlipHandlers) HandleSubmitPaper(w http.ResponseWriter, r *http.Request) {
	var req matchslipservice.PaperSlipRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.JudgeSignature != "" {
		httpjson.WriteError(w, http.StatusForbidden, matchslipdomain.ReasonNotAuthorized,
			"judge attestation requires the attest endpoint")
		return
	}
	result, err := h.service.SubmitPaperSlip(r.Context(), chi.URLParam(r, "id"), req)
	respond(h, w, r, http.StatusOK, result.Success, result.Failure, err)
}

// HandleAttestPaper records a judge-attested paper slip. The judge comes from
// the bearer token when one is present; the body's judge_signature is only
// used without authentication.
func (h *MatchSlipHandlers) HandleAttestPaper(w http.ResponseWriter, r *http.Request) {
	var req matchslipservice.PaperSlipRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if claims, ok := authhandlers.ClaimsFromContext(r.Context()); ok {
		req.JudgeSignature = claims.ActorID
	}
	if req.JudgeSignature == "" {
		badRequest(w, errors.New("judge_signature is required"))
		return
	}
	result, err := h.service.SubmitPaperSlip(r.Context(), chi.URLParam(r, "id"), req)
	respond(h, w, r, http.StatusOK, result.Success, result.Failure, err)
}

func (h *MatchSlipHandlers) HandleRaiseDispute(w http.ResponseWriter, r *http.Request) {
	var req matchslipservice.DisputeRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	result, err := h.service.RaiseDispute(r.Context(), chi.URLParam(r, "id"), req)
	respond(h, w, r, http.StatusCreated, result.Success, result.Failure, err)
}

// HandleResolveDispute takes the judge from the bearer token when one is
// present; the body's judge_id is only used without authentication.
func (h *MatchSlipHandlers) HandleResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if claims, ok := authhandlers.ClaimsFromContext(r.Context()); ok {
		req.JudgeID = claims.ActorID
	}
	result, err := h.service.ResolveDispute(r.Context(), chi.URLParam(r, "id"), req.JudgeID, req.Resolution)
	respond(h, w, r, http.StatusOK, result.Success, result.Failure, err)
}

// HandleImport reads a multipart upload with the batch in the "file" field.
func (h *MatchSlipHandlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, fmt.Errorf("malformed upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, errors.New(`upload requires a "file" field`))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	result, err := h.service.ImportPaperSlips(r.Context(), header.Filename, data)
	respond(h, w, r, http.StatusOK, result.Success, result.Failure, err)
}

func (h *MatchSlipHandlers) HandleListSlips(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListSlips(r.Context(), chi.URLParam(r, "id"))
	respond(h, w, r, http.StatusOK, result.Success, result.Failure, err)
}

func (h *MatchSlipHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "id")
	data, err := h.service.ExportResults(r.Context(), tournamentID)
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-results.xlsx"`, tournamentID))
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleAlternatives lists fallback flows; operation defaults to signature.
func (h *MatchSlipHandlers) HandleAlternatives(w http.ResponseWriter, r *http.Request) {
	operation := r.URL.Query().Get("operation")
	if operation == "" {
		operation = matchslippolicy.OperationSignature
	}
	methods, err := h.service.GetAlternativeMethods(r.Context(), chi.URLParam(r, "id"), operation)
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, methods)
}
