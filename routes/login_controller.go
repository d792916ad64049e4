package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/gzanin/formdeck/app"
	"github.com/gzanin/formdeck/httpx"
	"github.com/gzanin/formdeck/log"
	"github.com/gzanin/formdeck/users"
)

// Login exchanges a verified federated identity for a session token. The
// identity provider callback layer is trusted to have validated the profile
// before posting it here.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := users.Identity{}
		err := render.DecodeJSON(r.Body, &identity)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "login.parse_body")
			return
		}

		userID, err := app.Users.Resolve(r.Context(), identity)
		if errors.Is(err, users.ErrInvalidIdentity) {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "login.identity")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "login.resolve", err)
			return
		}

		claims := map[string]any{
			"user_id":   userID,
			"name":      identity.Name,
			"photo_uri": identity.PhotoURI,
		}
		jwtauth.SetIssuedNow(claims)
		jwtauth.SetExpiryIn(claims, app.TokenTTL)

		_, token, err := app.TokenAuth.Encode(claims)
		if err != nil {
			httpx.LogInternalError(w, "login.encode_token", err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Path:     "/",
			Name:     "jwt",
			Value:    token,
			MaxAge:   int(app.TokenTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		render.JSON(w, r, map[string]any{
			"access_token": token,
			"expires_in":   int(app.TokenTTL.Seconds()),
		})
	}
}
