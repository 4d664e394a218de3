// Package auth provides the client for the managed identity provider.
//
// The provider is a GoTrue-compatible REST service (the hosted auth layer in
// front of the recipe store). This package wraps its email/password sign-up,
// password-grant sign-in, sign-out, and session-introspection endpoints.
// Authentication is consumed, never reimplemented: credentials and tokens
// are relayed, and token validity is decided exclusively by the provider.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxBodyBytes caps how much of a provider response body is read.
const maxBodyBytes = 1 << 20

var (
	// ErrInvalidCredentials indicates the provider rejected an email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized indicates the provider rejected the presented access token.
	ErrUnauthorized = errors.New("no active session")
)

// User is the subset of the provider's user object this service reads.
// The ID is the opaque subject id that owns recipe records.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the token bundle returned by sign-in/sign-up. The access token
// is opaque to this service; it is echoed back to the provider whenever the
// current user must be resolved.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Provider defines the identity operations consumed by handlers and
// middleware. Implementations must be safe for concurrent use and must
// honor the provided context.
type Provider interface {
	// SignUp registers a new email/password user and returns its session.
	SignUp(ctx context.Context, email, password string) (*Session, error)
	// SignIn exchanges email/password for a session (password grant).
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignOut revokes the session behind accessToken.
	SignOut(ctx context.Context, accessToken string) error
	// GetUser resolves the user behind accessToken, or ErrUnauthorized.
	GetUser(ctx context.Context, accessToken string) (*User, error)
}

// Client talks to the GoTrue-compatible identity provider over HTTP.
// It is stateless and safe for concurrent use.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewClient creates an identity provider client. baseURL is the project URL
// (without the /auth/v1 suffix) and anonKey is its public API key.
func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// providerError mirrors the provider's error body shapes (it has used both
// "msg" and "error_description" across versions).
type providerError struct {
	Msg         string `json:"msg"`
	Message     string `json:"message"`
	Description string `json:"error_description"`
}

func (e providerError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.Description} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SignUp registers a new user. The provider responds with a session when
// email confirmation is disabled, or a bare user object otherwise; both
// shapes are handled (token fields stay empty in the latter case).
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	raw, err := c.post(ctx, "/auth/v1/signup", "", credentialsRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode identity provider response: %w", err)
	}
	if s.User.ID == "" {
		// Bare-user response: the user object is the top-level document.
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("decode identity provider response: %w", err)
		}
		s.User = u
	}
	return &s, nil
}

// SignIn exchanges email/password for a session via the password grant.
// A 400/401 from the provider maps to ErrInvalidCredentials.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	raw, err := c.post(ctx, "/auth/v1/token?grant_type=password", "", credentialsRequest{Email: email, Password: password})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.status == http.StatusBadRequest || se.status == http.StatusUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode identity provider response: %w", err)
	}
	return &s, nil
}

// SignOut revokes the session behind accessToken. Revoking an already-dead
// token is not an error worth surfacing; only transport and 5xx failures
// propagate.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.post(ctx, "/auth/v1/logout", accessToken, nil)
	var se *statusError
	if errors.As(err, &se) && se.status < http.StatusInternalServerError {
		return nil
	}
	return err
}

// GetUser resolves the user behind accessToken. A 401/403 from the provider
// maps to ErrUnauthorized.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, asError(resp)
	}

	var u User
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode identity provider response: %w", err)
	}
	if u.ID == "" {
		return nil, ErrUnauthorized
	}
	return &u, nil
}

// post issues a JSON POST to path and returns the raw 2xx body.
// Non-2xx responses come back as *statusError.
func (c *Client) post(ctx context.Context, path, accessToken string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, asError(resp)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read identity provider response: %w", err)
	}
	return raw, nil
}

// setHeaders attaches the public API key and, when present, the bearer token.
func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
}

// statusError carries a non-2xx provider response.
type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("identity provider: %s (status %d)", e.msg, e.status)
	}
	return fmt.Sprintf("identity provider: status %d", e.status)
}

// asError converts a non-2xx response into a *statusError with the
// provider's message when one is present.
func asError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var pe providerError
	_ = json.Unmarshal(raw, &pe)
	return &statusError{status: resp.StatusCode, msg: pe.text()}
}
