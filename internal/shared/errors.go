package shared

import "errors"

var (
	// ErrInvalidCredential covers malformed, forged and expired bearer
	// credentials. A single kind so callers cannot tell which check failed.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrNotAuthenticated indicates no verified identity on the current request.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAccessDenied indicates an identity with insufficient privilege.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
)
