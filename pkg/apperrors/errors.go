package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyConverted  = errors.New("project already converted")
	ErrDuplicateLink     = errors.New("link already exists")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
