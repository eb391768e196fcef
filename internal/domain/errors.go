package domain

import "errors"

var (
	ErrInvalidParameter        = errors.New("invalid parameter")
	ErrEmbeddingLengthMismatch = errors.New("embedding length mismatch")
	ErrExternalService         = errors.New("external service error")
	ErrSessionNotFound         = errors.New("session not found")
	ErrUnknownTool             = errors.New("unknown tool")
)
