package service

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrRequestTimeout = errors.New("request timeout")

	// Model service errors
	ErrNotConfigured   = errors.New("model service credential not configured")
	ErrUpstream        = errors.New("model service error")
	ErrEmptyCompletion = errors.New("model service returned no completion")

	// Auth-related errors
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)
