package health

import "errors"

var (
	// ErrInvalidName indicates an empty integration name was registered.
	ErrInvalidName = errors.New("health: integration name is required")

	// ErrIntegrationNotFound indicates a lookup for an unregistered integration.
	// It is only surfaced by the HTTP handlers.
	ErrIntegrationNotFound = errors.New("health: integration not found")
)
