// Package services defines the business logic for recipe generation and
// persistence. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; the
// handler layer translates them into HTTP statuses and user-facing messages.
package services

import "errors"

var (
	// ErrEmptyPrompt is returned when a generation request contains an
	// empty or whitespace-only prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrMissingUser is returned when an operation that writes or reads
	// owner-scoped data is attempted without an owner id.
	ErrMissingUser = errors.New("user id is required")

	// ErrEmptyRecipe is returned when a save request contains no recipe
	// text. Recipe records must never be empty.
	ErrEmptyRecipe = errors.New("recipe is empty")
)
