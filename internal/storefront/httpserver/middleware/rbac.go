package middleware

import (
	"net/http"

	"github.com/grindngainz15/fronted/internal/storefront/rbac"
)

// RequireCapability aborts the request when the signed-in shopper's role lacks
// the capability. Anonymous requests are sent to login first.
func RequireCapability(capability rbac.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if !id.Authenticated() {
				redirectToLogin(w, r, loginWithNext(DefaultLoginPath, r))
				return
			}
			if !rbac.HasCapability(id.Role, capability) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if HTMXInfoFromContext(r.Context()).IsHTMX {
		w.Header().Set("HX-Refresh", "true")
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
