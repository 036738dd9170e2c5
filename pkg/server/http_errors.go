package server

import (
	"net/http"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
	"github.com/zen-systems/alphacouncil/pkg/pipeline"
)

func httpStatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindMissingCredential:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnsupported:
		return http.StatusNotImplemented
	case apperr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondErr maps a classified error to its status and the bare reason.
func respondErr(w http.ResponseWriter, err error) {
	respondJSON(w, httpStatusFor(err), map[string]string{
		"error": pipeline.ErrorMessage(err),
		"kind":  string(apperr.KindOf(err)),
	})
}
