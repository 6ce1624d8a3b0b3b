package goal

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedControl indicates a weight keyed by a name the model does not expose.
	ErrUnrecognizedControl = errors.New("goal: unrecognized control")

	// ErrInvalidExponent indicates an exponent below 2 (or not a finite number).
	ErrInvalidExponent = errors.New("goal: exponent must be 2 or greater")

	// ErrInvalidWeight indicates a NaN or infinite weight.
	ErrInvalidWeight = errors.New("goal: weight must be finite")

	// ErrControlOrder indicates the model's control layout disagrees with its name list.
	ErrControlOrder = errors.New("goal: model control order does not match control names")

	// ErrDegenerateDisplacement indicates a zero or non-finite displacement under normalization.
	ErrDegenerateDisplacement = errors.New("goal: degenerate displacement")

	// ErrNotInitialized indicates evaluation before a successful Initialize.
	ErrNotInitialized = errors.New("goal: not initialized")

	// ErrMissingEndpoint indicates Cost was called without initial or final node.
	ErrMissingEndpoint = errors.New("goal: missing initial or final node")
)

// ConfigError reports an invalid setting found while binding a goal to a model.
type ConfigError struct {
	Goal  string
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("goal %q: %s %s: %v", e.Goal, e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
