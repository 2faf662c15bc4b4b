package middleware

import (
	"context"
	"net/http"
	"strings"

	"todo-service/config"
	"todo-service/utils"
)

type contextKey string

const userClaimsKey contextKey = "userClaims"

// AuthMiddleware rejects requests on protected routes before any handler
// logic runs: 403 when no bearer token is presented, 401 when the token
// fails signature or expiry checks.
func AuthMiddleware(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				writeErrorResponse(w, http.StatusForbidden, "Missing authentication token", nil)
				return
			}

			claims, err := utils.ParseToken(token, cfg.Auth.TokenSecret)
			if err != nil {
				writeErrorResponse(w, http.StatusUnauthorized, "Invalid or expired token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), userClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*utils.Claims)
	return claims, ok
}

func ContextWithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

func tokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}
