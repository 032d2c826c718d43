package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAuth enforces the configured bearer token. With no token
// configured the server is open; local development relies on the loopback
// bind instead.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Server.AuthToken == "" {
			next(w, r)
			return
		}
		if !tokenMatches(presentedToken(r), s.cfg.Server.AuthToken) {
			s.log.Warn().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("unauthorized request")
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		next(w, r)
	}
}

// presentedToken extracts the caller's token from the Authorization header,
// or from the token query parameter for WebSocket clients that cannot set
// headers.
func presentedToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return after
		}
		return auth
	}
	return r.URL.Query().Get("token")
}

func tokenMatches(presented, expected string) bool {
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}
