package auth

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
)

const cookieName = "token"

// Authenticate resolves the session token from the Authorization header, or
// the token cookie as a fallback, and stores the principal in the context.
func Authenticate(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httputil.RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			principal, err := tokens.Parse(raw)
			if err != nil {
				logger.DebugContext(r.Context(), "rejected session token", "path", r.URL.Path, "error", err)
				httputil.RespondWithError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// SetAuthCookie mirrors the token into an HttpOnly cookie for browser clients.
func SetAuthCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	env := os.Getenv("ENV")
	sameSite := http.SameSiteStrictMode
	if env == "" || env == "local" || env == "development" {
		sameSite = http.SameSiteLaxMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   env == "prod" || env == "production",
		SameSite: sameSite,
		Path:     "/",
		Expires:  expiresAt,
	})
}
