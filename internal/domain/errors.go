package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotRetryable   = errors.New("job is not retryable")
	ErrNotPublishable = errors.New("job is not ready for publishing")
	ErrStaleJob       = errors.New("job changed concurrently")
)
