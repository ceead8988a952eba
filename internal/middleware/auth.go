package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Dan9191/bank-cards/internal/auth"
	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// TokenValidator checks bearer tokens
type TokenValidator interface {
	Validate(token string) (*auth.Identity, error)
}

// UserResolver maps a token subject to a stored user
type UserResolver interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

const bearerPrefix = "Bearer "

// Authenticate resolves the bearer token into a principal stored on the request
// context. Requests without an Authorization header pass through anonymously; a
// header carrying a bad or expired token is rejected with 401. A principal that
// is already on the context is never replaced.
func Authenticate(tokens TokenValidator, users UserResolver, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.PrincipalFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(header, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			identity, err := tokens.Validate(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
			if err != nil {
				log.WithField("request_id", RequestIDFromContext(r.Context())).Debugf("Token rejected: %v", err)
				writeError(w, http.StatusUnauthorized, models.Message(err))
				return
			}

			user, err := users.FindUserByUsername(r.Context(), identity.Username)
			if errors.Is(err, models.ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if err != nil {
				log.WithField("request_id", RequestIDFromContext(r.Context())).Errorf("Failed to resolve user %s: %v", identity.Username, err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := auth.WithPrincipal(r.Context(), &auth.Principal{
				UserID:   user.ID,
				Username: user.Username,
				Role:     user.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects requests whose principal does not satisfy perm
func Require(perm auth.Permission) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := auth.PrincipalFromContext(r.Context())
			if err := auth.Authorize(p, perm); err != nil {
				status := http.StatusForbidden
				if errors.Is(err, models.ErrUnauthorized) {
					status = http.StatusUnauthorized
				}
				writeError(w, status, models.Message(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
