package auth

import (
	"net/http"
	"strings"

	"github.com/paperbill/paperbill/internal/platform/httpx"
	"github.com/paperbill/paperbill/internal/shared"
)

// RequireAuth verifies the Bearer access token and stores the resolved
// owner ID in the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		ownerID, err := s.VerifyAccess(token)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithOwner(r.Context(), ownerID)))
	})
}
