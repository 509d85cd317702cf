package domain

import "errors"

// Sentinel errors for the job API. InvalidRequest and NotFound surface
// synchronously from Submit/Status/Rerender; everything else surfaces through
// the job's terminal state and its progress stream.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUpstream       = errors.New("upstream failure")
	ErrTimeout        = errors.New("timed out")
	ErrInternal       = errors.New("internal error")
)
