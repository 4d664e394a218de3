// Package generation provides the outbound client for the external recipe
// generation webhook. The webhook is a fire-and-forget workflow endpoint:
// it accepts a JSON body containing only the user prompt and responds with
// a JSON body containing unstructured recipe text.
//
// The client makes exactly one attempt per call. There is no retry, no
// circuit breaking, and no response caching; the only resilience measure is
// the HTTP client timeout, which bounds how long a single generation call
// may hang.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FallbackText is returned when the webhook responds successfully but
// without a recipe field. Kept as a literal the UI can display verbatim.
const FallbackText = "No recipe returned"

// maxResponseBytes caps how much of the webhook response body is read.
const maxResponseBytes = 1 << 20 // 1 MiB

// ErrUpstream indicates the webhook responded with a non-success status.
// Callers map it to an internal-error response without exposing the
// upstream status to clients.
var ErrUpstream = errors.New("generation webhook returned non-success status")

// Generator produces recipe text for a prompt. Implementations must be safe
// for concurrent use and must honor the provided context.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client calls the recipe generation webhook over HTTP.
type Client struct {
	endpointURL string
	httpClient  *http.Client
}

// NewClient creates a webhook client for endpointURL with the given
// per-request timeout.
func NewClient(endpointURL string, timeout time.Duration) *Client {
	return &Client{
		endpointURL: endpointURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// generateRequest is the webhook request body. Only the prompt is sent;
// the owner id never leaves this service.
type generateRequest struct {
	Prompt string `json:"prompt"`
}

// generateResponse is the webhook response body. Recipe may be absent.
type generateResponse struct {
	Recipe string `json:"recipe"`
}

// Generate posts the prompt to the webhook and returns the recipe text.
//
// Behavior:
//   - non-2xx response → ErrUpstream (status logged by the caller, not relayed)
//   - 2xx with missing/empty recipe field → FallbackText, no error
//   - network failure or malformed JSON → the underlying error
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generation webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return "", fmt.Errorf("%w: %d", ErrUpstream, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read generation response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if out.Recipe == "" {
		return FallbackText, nil
	}
	return out.Recipe, nil
}
