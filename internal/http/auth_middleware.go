package httpx

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// requireAuth validates the shared-secret bearer credential. The
// liveness path passes through without a credential check.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == healthPath {
			next(w, req)
			return
		}
		header := req.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Missing Authorization header")
			return
		}
		// Tolerant parse: a bare token without the Bearer prefix is
		// accepted as the token itself.
		token := strings.TrimPrefix(header, bearerPrefix)
		if r.apiToken == "" {
			// An unset secret is an operator error, not a client one.
			r.logger.Error("api token not configured", "path", req.URL.Path)
			writeError(w, http.StatusInternalServerError, "Server misconfigured")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(r.apiToken)) != 1 {
			r.logger.Warn("token mismatch", "path", req.URL.Path)
			writeError(w, http.StatusForbidden, "Invalid token")
			return
		}
		next(w, req)
	}
}
