package checkinhandlers

import (
	"context"
	"net/http"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/handlerwrapper"
)

// Handlers handles check-in bus commands.
type Handlers interface {
	HandleRedeemRequested(ctx context.Context, payload *checkindomain.RedeemRequestedPayloadV1) ([]handlerwrapper.Result, error)
}

// HTTPHandlers serves the check-in REST surface.
type HTTPHandlers interface {
	HandleIssue(w http.ResponseWriter, r *http.Request)
	HandleValidate(w http.ResponseWriter, r *http.Request)
	HandleRefresh(w http.ResponseWriter, r *http.Request)
	HandleRedeem(w http.ResponseWriter, r *http.Request)
	HandleExpire(w http.ResponseWriter, r *http.Request)
	HandleHistory(w http.ResponseWriter, r *http.Request)
	HandleChart(w http.ResponseWriter, r *http.Request)
}
