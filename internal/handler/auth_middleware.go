package handler

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/model"
	"github.com/suar-net/foodscan-be/internal/service"
)

type contextKey string

const claimsContextKey = contextKey("claims")

type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*model.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
	logger *zap.Logger
}

func NewAuthMiddleware(tokens TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate requires a valid bearer token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithFailure(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			respondWithFailure(w, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := m.tokens.ValidateToken(r.Context(), headerParts[1])
		if err != nil {
			m.logger.Warn("rejected bearer token", zap.Error(err), zap.String("path", r.URL.Path))
			if errors.Is(err, service.ErrTokenExpired) {
				respondWithFailure(w, http.StatusUnauthorized, "Token has expired")
			} else {
				respondWithFailure(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthenticateMethods guards only the listed methods, so method gates in
// the wrapped handler still answer everything else.
func (m *AuthMiddleware) AuthenticateMethods(next http.Handler, methods ...string) http.Handler {
	guarded := m.Authenticate(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slices.Contains(methods, r.Method) {
			guarded.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the caller's claims set by Authenticate.
func ClaimsFromContext(ctx context.Context) (*model.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*model.Claims)
	return claims, ok
}
