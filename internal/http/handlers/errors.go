// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These symbolic constants are mapped to HTTP responses via the fail()
// helper in this package. They give clients a stable, machine-readable
// taxonomy that supplements the human-readable message:
//
//   - Generic codes (bad_request, unauthorized, not_found) mirror common
//     HTTP status semantics.
//   - Domain codes map the pipeline failure classes: auth_error (no active
//     session), generation_failed (external webhook failed), save_failed
//     (store write failed), list_failed (history read failed).
//
// The specific cause behind a 5xx is logged server-side only; the response
// body carries a static message, so clients cannot distinguish an upstream
// generation failure from any other internal failure at the generation
// gateway.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeAuth         = "auth_error"
	ErrCodeNotFound     = "not_found"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeGenerationFailed = "generation_failed"
	ErrCodeSaveFailed       = "save_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
