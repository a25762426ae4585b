package middleware

import (
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/model"
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const UserContextKey contextKey = "userContext"

// AuthMiddleware turns the bearer token issued by the storefront's auth
// module into a *model.AuthUser on the request context.
type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(cfg *config.AppConfig) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: cfg.JWTSecret,
	}
}

func (m *AuthMiddleware) VerifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		m.serveWithToken(w, r, next, parts[1])
	})
}

func (m *AuthMiddleware) VerifyWSToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		m.serveWithToken(w, r, next, tokenString)
	})
}

func (m *AuthMiddleware) serveWithToken(w http.ResponseWriter, r *http.Request, next http.Handler, tokenString string) {
	claims, err := helper.ParseJWT(m.jwtSecret, tokenString)
	if err != nil {
		slog.Warn("Rejected token", "error", err)
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	authUser := &model.AuthUser{
		UserID:  claims.UserID,
		IsAdmin: claims.Role == helper.RoleAdmin,
	}

	ctx := context.WithValue(r.Context(), UserContextKey, authUser)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func GetAuthUser(ctx context.Context) (*model.AuthUser, bool) {
	authUser, ok := ctx.Value(UserContextKey).(*model.AuthUser)
	return authUser, ok && authUser != nil
}
