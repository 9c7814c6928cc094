package middleware

import (
	"net/http"
	"strings"

	"github.com/fincrate/fincrate-backend/internal/api/response"
	"github.com/fincrate/fincrate-backend/internal/auth"
)

// AuthCookieName is the cookie the web frontend stores the token in.
const AuthCookieName = "authToken"

// TokenVerifier resolves a token to a user ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate resolves the caller from the authToken cookie or an
// "Authorization: Bearer" header and stores the user ID in the request context.
// A missing token is answered with 401, an invalid or expired one with 403.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				response.RespondError(w, http.StatusUnauthorized, "Authentication required", "Missing token")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				response.RespondError(w, http.StatusForbidden, "Invalid or expired token", err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
