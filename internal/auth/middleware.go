package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

// Authenticator resolves an access token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*user.User, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	auth Authenticator
}

func NewMiddleware(auth Authenticator) *Middleware {
	return &Middleware{auth: auth}
}

// RequireAuth is a middleware that validates the bearer access token
// and stores the resolved user in the request context
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		currentUser, err := m.auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			switch {
			case errors.Is(err, ErrExpiredToken):
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
			case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUserNoLongerExists):
				logger.Debug("rejected access token", "error", err.Error())
				httputil.RespondErrorWithCode(w, "Could not validate credentials", httputil.CodeInvalidToken, http.StatusUnauthorized)
			default:
				logger.LogError("authentication failed: internal error", err)
				httputil.RespondInternalError(w)
			}
			return
		}

		ctx := user.WithContext(r.Context(), currentUser)
		ctx = logging.WithLogger(ctx, logger.WithFields(map[string]any{"username": currentUser.Username}))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated users whose role is not one of roles
// Must run after RequireAuth
func (m *Middleware) RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			currentUser, ok := user.FromContext(r.Context())
			if !ok {
				httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if currentUser.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logging.GetLoggerFromContext(r.Context()).Warn("access denied", "role", currentUser.Role)
			httputil.RespondErrorWithCode(w, "Operation forbidden", httputil.CodeForbidden, http.StatusForbidden)
		})
	}
}
