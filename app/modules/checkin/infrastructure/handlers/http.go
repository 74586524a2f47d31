package checkinhandlers

import (
	"net/http"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	authhandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/auth/infrastructure/handlers"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/httpjson"
	"github.com/go-chi/chi/v5"
)

type issueRequest struct {
	PlayerID     string `json:"player_id"`
	TournamentID string `json:"tournament_id"`
	Division     string `json:"division"`
}

type redeemRequest struct {
	ScannedBy string `json:"scanned_by"`
}

// failureStatus maps a check-in failure reason to its HTTP status.
func failureStatus(reason string) int {
	switch reason {
	case checkindomain.ReasonNotFound:
		return http.StatusNotFound
	case checkindomain.ReasonExpired:
		return http.StatusGone
	case checkindomain.ReasonAlreadyCheckedIn:
		return http.StatusConflict
	case checkindomain.ReasonInvalidInput:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeFailure(w http.ResponseWriter, err error) {
	reason := checkindomain.ReasonFor(err)
	if reason == "" {
		reason = "internal"
	}
	httpjson.WriteError(w, failureStatus(reason), reason, err.Error())
}

func (h *CheckInHandlers) writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "Check-in request failed",
		attr.ExtractCorrelationID(r.Context()),
		attr.String("path", r.URL.Path),
		attr.Error(err),
	)
	httpjson.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
}

func (h *CheckInHandlers) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, checkindomain.ReasonInvalidInput, err.Error())
		return
	}

	result, err := h.service.Issue(r.Context(), req.PlayerID, req.TournamentID, req.Division)
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	httpjson.Write(w, http.StatusCreated, *result.Success)
}

func (h *CheckInHandlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Validate(r.Context(), chi.URLParam(r, "value"))
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	httpjson.Write(w, http.StatusOK, *result.Success)
}

func (h *CheckInHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Refresh(r.Context(), chi.URLParam(r, "value"))
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	httpjson.Write(w, http.StatusCreated, *result.Success)
}

// HandleRedeem accepts an optional body. The scanner defaults to the
// authenticated actor.
func (h *CheckInHandlers) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if r.ContentLength > 0 {
		if err := httpjson.Decode(w, r, &req); err != nil {
			httpjson.WriteError(w, http.StatusBadRequest, checkindomain.ReasonInvalidInput, err.Error())
			return
		}
	}
	if req.ScannedBy == "" {
		if claims, ok := authhandlers.ClaimsFromContext(r.Context()); ok {
			req.ScannedBy = claims.ActorID
		}
	}

	result, err := h.service.Redeem(r.Context(), chi.URLParam(r, "value"), req.ScannedBy)
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	httpjson.Write(w, http.StatusOK, *result.Success)
}

func (h *CheckInHandlers) HandleExpire(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Expire(r.Context(), chi.URLParam(r, "value"))
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	httpjson.Write(w, http.StatusOK, *result.Success)
}

func (h *CheckInHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}
	if result.IsFailure() {
		writeFailure(w, *result.Failure)
		return
	}
	httpjson.Write(w, http.StatusOK, *result.Success)
}

func (h *CheckInHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	png, err := h.service.ArrivalsChart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
