package matchsliprouter

import (
	"net/http"

	matchsliphandlers "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/handlers"
	"github.com/go-chi/chi/v5"
)

// Gates are the HTTP middlewares protecting judge-only routes.
type Gates struct {
	RequireJudge func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

// MountHTTP registers the match-slip REST routes on r.
func MountHTTP(r chi.Router, h matchsliphandlers.HTTPHandlers, gates Gates) {
	if gates.RequireJudge == nil {
		gates.RequireJudge = passthrough
	}

	r.Route("/api/slips", func(r chi.Router) {
		r.Post("/", h.HandleCreateSlip)
		r.With(gates.RequireJudge).Post("/import", h.HandleImport)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetSlip)
			r.Get("/methods", h.HandleSignatureMethods)
			r.Post("/games", h.HandleSubmitGame)
			r.Post("/signatures", h.HandleSubmitSignature)
			r.Post("/paper", h.HandleSubmitPaper)
			r.With(gates.RequireJudge).Post("/paper/attest", h.HandleAttestPaper)
			r.Post("/disputes", h.HandleRaiseDispute)
			r.With(gates.RequireJudge).Post("/disputes/resolve", h.HandleResolveDispute)
		})
	})

	r.Route("/api/tournaments/{id}", func(r chi.Router) {
		r.Get("/slips", h.HandleListSlips)
		r.Get("/slips/export.xlsx", h.HandleExport)
		r.Get("/alternatives", h.HandleAlternatives)
	})
}
