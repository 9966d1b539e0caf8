package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dogwatchapp/dogwatch/internal/auth"
	"github.com/dogwatchapp/dogwatch/internal/identity"
)

// WithIdentity validates the bearer credential and puts the asserted
// identity on the request context. 401 on a missing or bad token; member
// resolution happens one layer up.
func WithIdentity(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			id, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireActor resolves the identity to a member with a household and puts
// the actor on the context. Endpoints reachable before a member has a
// household (create, join) sit outside this middleware.
func RequireActor(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			member, err := gate.ResolveActor(id)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			household, err := gate.RequireHousehold(member)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			actor := auth.Actor{Member: member, Household: household}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrMemberNotFound), errors.Is(err, auth.ErrNoHousehold):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, auth.ErrHouseholdNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return token
	}
	// Browsers cannot set headers on WebSocket dials; allow a query fallback
	// for /ws only.
	return r.URL.Query().Get("token")
}
