package service

import "errors"

// Sentinel errors returned by the core operations. Callers match them with errors.Is;
// the wrapped message carries the detail.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("invalid argument")
	ErrStateConflict      = errors.New("state conflict")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
)
