package checkinrouter

import (
	"context"
	"log/slog"
	"net/http"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	checkinhandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/infrastructure/handlers"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

// CheckInRouter handles Watermill handler registration for check-in commands.
type CheckInRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewCheckInRouter creates a new CheckInRouter.
func NewCheckInRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *CheckInRouter {
	return &CheckInRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *CheckInRouter) Configure(_ context.Context, handlers checkinhandlers.Handlers) error {
	r.logger.Info("Registering check-in module handlers",
		slog.String("redeem_subject", checkindomain.RedeemRequestedV1),
	)

	registerHandler(r, checkindomain.RedeemRequestedV1, handlers.HandleRedeemRequested)

	r.logger.Info("Check-in module handlers registered successfully")
	return nil
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	r *CheckInRouter,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "checkin." + topic

	r.router.AddNoPublisherHandler(
		handlerName,
		topic,
		r.subscriber,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			r.logger,
			r.tracer,
			r.publisher,
			handler,
		),
	)
}

// Gates are the HTTP middlewares protecting staff-only routes.
type Gates struct {
	RequireStaff func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

// MountHTTP registers the check-in REST routes on r.
func MountHTTP(r chi.Router, h checkinhandlers.HTTPHandlers, gates Gates) {
	if gates.RequireStaff == nil {
		gates.RequireStaff = passthrough
	}
	if gates.RateLimit == nil {
		gates.RateLimit = passthrough
	}

	r.Route("/api/checkin", func(r chi.Router) {
		r.Post("/tokens", h.HandleIssue)
		r.Get("/tokens/{value}", h.HandleValidate)
		r.Post("/tokens/{value}/refresh", h.HandleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(gates.RequireStaff)
			r.With(gates.RateLimit).Post("/tokens/{value}/redeem", h.HandleRedeem)
			r.Post("/tokens/{value}/expire", h.HandleExpire)
		})

		r.Get("/tournaments/{id}/records", h.HandleHistory)
		r.Get("/tournaments/{id}/chart.png", h.HandleChart)
	})
}
