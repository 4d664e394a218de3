// Auth HTTP handlers.
//
// This file exposes the session endpoints:
//   - POST /auth/signup    (register with email/password)
//   - POST /auth/signin    (password-grant sign-in)
//   - POST /auth/signout   (revoke the current session)
//   - GET  /auth/session   (resolve the current user)
//
// All four are thin proxies over the managed identity provider; no
// credential or token ever persists in this service.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/platewise/go-recipe-backend/internal/auth"
	"github.com/platewise/go-recipe-backend/internal/http/middleware"
)

// idProvider is the subset of auth.Provider consumed by these handlers.
type idProvider interface {
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*auth.User, error)
}

// CredentialsRequest is the JSON payload for sign-up and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email"    binding:"required,email" example:"cook@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"hunter22"`
}

// SessionResponse wraps the provider session returned on sign-up/sign-in.
type SessionResponse struct {
	Session *auth.Session `json:"session"`
}

// UserResponse wraps the current session's user.
type UserResponse struct {
	User *auth.User `json:"user"`
}

// SignUp godoc
// @ID          signUp
// @Summary     Register a new user
// @Description Registers an email/password user with the identity provider and returns its session.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
//
// @Success     201  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid email or short password"
// @Failure     500  {object}  handlers.ErrorResponse  "Provider failure"
// @Router      /auth/signup [post]
func (h *Handlers) SignUp(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "valid email and password (min 6 chars) required")
		return
	}

	s, err := h.idp.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("sign-up failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "sign-up failed")
		return
	}
	ok(c, http.StatusCreated, SessionResponse{Session: s})
}

// SignIn godoc
// @ID          signIn
// @Summary     Sign in with email and password
// @Description Exchanges credentials for a session via the identity provider's password grant.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CredentialsRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed payload"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Provider failure"
// @Router      /auth/signin [post]
func (h *Handlers) SignIn(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "valid email and password required")
		return
	}

	s, err := h.idp.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeAuth, "invalid email or password")
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("sign-in failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "sign-in failed")
		return
	}
	ok(c, http.StatusOK, SessionResponse{Session: s})
}

// SignOut godoc
// @ID          signOut
// @Summary     Sign out
// @Description Revokes the session behind the bearer token.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Missing bearer token"
// @Failure     500  {object} handlers.ErrorResponse "Provider failure"
// @Router      /auth/signout [post]
func (h *Handlers) SignOut(c *gin.Context) {
	token := bearerFromHeader(c)
	if token == "" {
		fail(c, http.StatusUnauthorized, ErrCodeAuth, "authentication required")
		return
	}

	if err := h.idp.SignOut(c.Request.Context(), token); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("sign-out failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "sign-out failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// Session godoc
// @ID          session
// @Summary     Get the current session's user
// @Description Resolves the bearer token to its user via the identity provider.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object} handlers.UserResponse
// @Failure     401  {object} handlers.ErrorResponse "No active session"
// @Router      /auth/session [get]
func (h *Handlers) Session(c *gin.Context) {
	// RequireUser already resolved the session; re-read from context.
	var u *auth.User
	if id := userID(c); id != "" {
		email, _ := c.Get(middleware.UserEmailKey)
		u = &auth.User{ID: id}
		if s, okc := email.(string); okc {
			u.Email = s
		}
	}
	if u == nil {
		fail(c, http.StatusUnauthorized, ErrCodeAuth, "no active session")
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}

// bearerFromHeader extracts a bearer token from the Authorization header.
func bearerFromHeader(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
