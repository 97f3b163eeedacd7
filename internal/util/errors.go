package util

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrUnknownQuestion     = errors.New("unknown question")
	ErrInvalidAction       = errors.New(`action must be "accept" or "deny"`)
	ErrUnauthenticated     = errors.New("authentication required")
	ErrUnauthorized        = errors.New("caller is not an authorized reviewer")
	ErrNotFound            = errors.New("submission not found")
	ErrSessionNotFound     = errors.New("assessment session not found")
	ErrInvalidTransition   = errors.New("submission has already been reviewed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
