package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"cliphub.org/internal/auth"
)

const (
	authHeader        = "Authorization"
	bearer            = "Bearer "
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

var publicPaths = []string{
	"/",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
	"/v1/users/register",
	"/v1/users/login",
	"/v1/users/refresh",
	"/v1/videos/feed",
	"/v1/events",
}

// optionalPrefixes are readable anonymously; a valid token just enriches
// the response (view counting, liked flags).
var optionalPrefixes = []string{
	"/v1/videos/",
	"/v1/comments/",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

func isOptionalPath(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.URL.Path == "/v1/videos/mine" {
		return false
	}
	for _, prefix := range optionalPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// withAuth authenticates requests outside the public set. The access token
// is read from the accessToken cookie first, then the Authorization header.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := extractAccessToken(r)
		if token == "" {
			if isOptionalPath(r) {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusUnauthorized, "missing access token")
			return
		}

		claims, err := a.sessions.VerifyAccess(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid access token")
			return
		}
		u, err := a.sessions.User(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				writeServiceError(w, auth.ErrInvalidUser)
				return
			}
			writeServiceError(w, err)
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), u.Public())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAccessToken prefers the cookie the browser flow sets; API clients
// fall back to a bearer header.
func extractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(accessCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header == "" || !strings.HasPrefix(header, bearer) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}

// identity returns the authenticated user, which withAuth guarantees for
// protected paths.
func identity(r *http.Request) (auth.User, bool) {
	return auth.IdentityFromContext(r.Context())
}

// viewerID returns the authenticated user id or empty for anonymous reads.
func viewerID(r *http.Request) string {
	if u, ok := identity(r); ok {
		return u.ID
	}
	return ""
}
