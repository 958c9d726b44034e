package api

import (
	"context"
	"net/http"
	"strings"

	"gochat/internal/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// withUser resolves the Authorization header into a user id when a valid
// token is present. Missing or invalid tokens are not rejected here, that is
// the job of requireAuth on private routes.
func (a *API) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if token := strings.TrimPrefix(authHeader, "Bearer "); token != "" && token != authHeader {
			if userID, err := auth.VerifyToken(a.cfg.JWTSecret, token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userIDFrom(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
