package seird

import "errors"

// Domain errors for simulation operations.
var (
	// ErrEmptyPopulation indicates an operation on a population with no agents.
	ErrEmptyPopulation = errors.New("seird: empty population")

	// ErrNoHistory indicates a history operation before any step was recorded.
	ErrNoHistory = errors.New("seird: no recorded history")

	// ErrIndexOutOfRange indicates a history index with no recorded snapshot.
	ErrIndexOutOfRange = errors.New("seird: history index out of range")

	// ErrInvalidTopology indicates a contact topology other than 4 or 6.
	ErrInvalidTopology = errors.New("seird: contact topology must be 4 or 6")
)
