package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dogwatchapp/dogwatch/internal/auth"
	"github.com/dogwatchapp/dogwatch/internal/shift"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps domain sentinels onto HTTP statuses. Cross-household
// access renders as the same Not Found a missing record gets, so an
// outsider cannot tell whether an id exists.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, shift.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, shift.ErrInvalidSlot):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid day or shift kind"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "something went wrong, try again"})
	}
}

// mustActor pulls the resolved actor off the context. The auth middleware
// guarantees it for every route using this helper.
func mustActor(r *http.Request) (auth.Actor, bool) {
	return auth.ActorFromContext(r.Context())
}
