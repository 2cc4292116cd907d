package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-presensi/internal/model"
	"go-presensi/pkg/apierror"
)

type tokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth verifies the bearer token and stores its claims in the
// request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeAPIError(w, apierror.MissingToken())
			return
		}

		claims, err := m.validator.ValidateToken(r.Context(), token)
		if err != nil {
			var apiErr *apierror.APIError
			if errors.As(err, &apiErr) {
				writeAPIError(w, apiErr)
				return
			}
			slog.Error("token validation failed", "error", err)
			writeAPIError(w, apierror.New(apierror.CodeInternal, "Unexpected server error", "", http.StatusInternalServerError))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAPIError(w, apierror.MissingToken())
				return
			}

			if _, exists := roleSet[strings.ToLower(claims.Role)]; !exists {
				writeAPIError(w, apierror.Forbidden("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, claims *model.AuthClaims) context.Context {
	return context.WithValue(ctx, authClaimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok && claims != nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
