package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrProtocolMissing = errors.New("protocol configuration is missing")
	ErrInvalidStage    = errors.New("invalid screening stage")
	ErrInvalidOutcome  = errors.New("invalid decision outcome")
)
