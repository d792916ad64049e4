package middlewares

import (
	"net/http"

	"github.com/go-chi/jwtauth"
)

// Authenticated verifies the session token (Authorization header or the
// "jwt" cookie) and rejects requests without a valid one.
func Authenticated(ja *jwtauth.JWTAuth) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		jwtauth.Verifier(ja),
		jwtauth.Authenticator,
	}
}

// UserID extracts the local user id from the verified session claims.
func UserID(r *http.Request) (int, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return 0, false
	}
	switch id := claims["user_id"].(type) {
	case float64:
		return int(id), true
	case int64:
		return int(id), true
	case int:
		return id, true
	}
	return 0, false
}
