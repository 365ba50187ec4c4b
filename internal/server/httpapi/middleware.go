package httpapi

import (
	"net/http"
	"strings"

	"github.com/drivepool/drivepool/internal/server/auth"
)

// withAuth rejects requests without a valid bearer token before any
// state-mutating work happens.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		if err := auth.VerifyToken(token, s.jwtSecret); err != nil {
			writeError(w, http.StatusForbidden, "invalid token")
			return
		}

		next(w, r)
	}
}
