package matchsliphandlers

import "net/http"

// HTTPHandlers is the match-slip REST surface.
type HTTPHandlers interface {
	HandleCreateSlip(w http.ResponseWriter, r *http.Request)
	HandleGetSlip(w http.ResponseWriter, r *http.Request)
	HandleSignatureMethods(w http.ResponseWriter, r *http.Request)
	HandleSubmitGame(w http.ResponseWriter, r *http.Request)
	HandleSubmitSignature(w http.ResponseWriter, r *http.Request)
	HandleSubmitPaper(w http.ResponseWriter, r *http.Request)
	HandleAttestPaper(w http.ResponseWriter, r *http.Request)
	HandleRaiseDispute(w http.ResponseWriter, r *http.Request)
	HandleResolveDispute(w http.ResponseWriter, r *http.Request)
	HandleImport(w http.ResponseWriter, r *http.Request)
	HandleListSlips(w http.ResponseWriter, r *http.Request)
	HandleExport(w http.ResponseWriter, r *http.Request)
	HandleAlternatives(w http.ResponseWriter, r *http.Request)
}
