package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

const IngestTokenHeader = "X-Ingest-Token"

// Auth validates a bearer token when one is present and stores its claims in
// the request context. Requests without a token pass through anonymously;
// protected routes reject them in RequireRoles.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := m.auth.Authorize(ctx, token)
		if err != nil {
			m.log.Debug(ctx, "rejected access token", "error", err.Error())
			msg := "invalid token"
			if errors.Is(err, types.ErrExpiredToken) {
				msg = "token expired"
			}
			errorResponse(w, http.StatusUnauthorized, msg)
			return
		}

		ctx = wrap.WithUserID(ctx, claims.UserID.String())
		next.ServeHTTP(w, r.WithContext(models.WithClaims(ctx, claims)))
	})
}

// RequireRoles allows only authenticated callers with one of allowedRoles.
// With no roles any authenticated caller passes.
func (m *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.UserRole) http.Handler {
	allowed := make(map[types.UserRole]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := models.ClaimsFromContext(r.Context())
		if claims == nil {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[claims.Role]; !ok {
				errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// RequireIngest accepts either the shared ingest token or an admin bearer
// token. An empty ingestToken disables the shared token.
func (m *Middleware) RequireIngest(next http.HandlerFunc, ingestToken string) http.Handler {
	adminOnly := m.RequireRoles(next, types.RoleAdmin)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(IngestTokenHeader)
		if ingestToken != "" && got != "" {
			if subtle.ConstantTimeCompare([]byte(got), []byte(ingestToken)) != 1 {
				errorResponse(w, http.StatusUnauthorized, "invalid ingest token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		adminOnly.ServeHTTP(w, r)
	})
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
