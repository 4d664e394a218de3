// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides RequireUser, the session guard for owner-scoped
// endpoints. Sessions belong entirely to the managed identity provider:
// the middleware extracts the bearer token and asks the provider who it
// belongs to; no token parsing or verification happens locally.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/platewise/go-recipe-backend/internal/auth"
)

const (
	// UserIDKey is the Gin context key holding the authenticated subject id.
	UserIDKey = "userID"
	// UserEmailKey is the Gin context key holding the subject email.
	UserEmailKey = "userEmail"
	// AccessTokenKey is the Gin context key holding the raw bearer token.
	AccessTokenKey = "accessToken"
)

// RequireUser returns a Gin middleware that rejects requests without a
// resolvable session. On success it stores the subject id, email, and raw
// token in the Gin context for downstream handlers.
//
// Responses:
//   - 401 {"code":"auth_error"} when no bearer token is present or the
//     provider rejects it
//   - 500 {"code":"internal_error"} when the provider call itself fails
func RequireUser(p auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortAuth(c, http.StatusUnauthorized, "auth_error", "authentication required")
			return
		}

		user, err := p.GetUser(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				abortAuth(c, http.StatusUnauthorized, "auth_error", "no active session")
				return
			}
			LoggerFrom(c).Error().Err(err).Msg("identity provider lookup failed")
			abortAuth(c, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserEmailKey, user.Email)
		c.Set(AccessTokenKey, token)
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header, tolerating
// any case of the "Bearer" scheme.
func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// abortAuth writes the standard error envelope and stops the chain.
func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"error":      msg,
	})
}
