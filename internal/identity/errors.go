package identity

import "errors"

// Domain-level error values returned by the identity service.
var (
	ErrMissingFields        = errors.New("email, name and password are required")
	ErrEmailTaken           = errors.New("email already in use")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidServiceConfig = errors.New("invalid identity service config")
)
