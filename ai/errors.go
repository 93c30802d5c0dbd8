package ai

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry is requested with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrRerankerUnavailable is returned when Rerank is called on an
	// unavailable reranker.
	ErrRerankerUnavailable = errors.New("reranker unavailable")

	// ErrEmptyCompletion is returned when a language model produces no choices.
	ErrEmptyCompletion = errors.New("model returned no completion")
)
