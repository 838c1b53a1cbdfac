package domain

import "errors"

// Sentinel errors classified at the HTTP boundary with errors.Is.
var (
	// ErrNotFound means a filter stage left no rows.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData means an analysis needs more complete rows than remain.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUpstream means an external fetch failed.
	ErrUpstream = errors.New("upstream error")
)
