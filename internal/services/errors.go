package services

import "errors"

// Sentinel errors surfaced verbatim to callers. Handlers map them onto HTTP
// status codes.
var (
	// Catalog misconfiguration, not user error.
	ErrNoPersonasAvailable   = errors.New("No personas available")
	ErrNoScenariosForPersona = errors.New("Selected persona has no scenarios")

	ErrSimulationNotFound      = errors.New("Simulation not found")
	ErrSimulationAlreadyActive = errors.New("An active simulation already exists for this user")

	ErrUnauthorized = errors.New("unauthorized")
)
