package cluster

import "errors"

// Sentinel errors returned before any merge is attempted
var (
	// ErrUnknownMethod indicates a method name outside the supported set
	ErrUnknownMethod = errors.New("cluster: unknown clustering method")

	// ErrInvalidTarget indicates a non-positive target cluster count
	ErrInvalidTarget = errors.New("cluster: target cluster count must be positive")

	// ErrInvalidParameter indicates an alpha or lambda outside its domain
	ErrInvalidParameter = errors.New("cluster: invalid method parameter")

	// ErrEmptySeries indicates a profile without any timestep
	ErrEmptySeries = errors.New("cluster: empty series")

	// ErrInvalidValue indicates a NaN or infinite value reached the core
	ErrInvalidValue = errors.New("cluster: series contains NaN or infinite value")
)
