package domain

import "errors"

var (
	// ErrNotFound signals a missing product, or a product without the text
	// required for embedding.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed or out-of-range caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBackendUnavailable signals an unreachable embedding provider or
	// embedding index.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrInternal signals an unexpected failure inside normalization or scoring.
	ErrInternal = errors.New("internal error")
)
