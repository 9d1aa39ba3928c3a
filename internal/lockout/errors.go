package lockout

import (
	"errors"
	"fmt"
)

// ErrInvalidIdentifier is returned by any operation that receives an empty
// identifier. Identifiers are otherwise opaque; the caller decides what they
// mean (IP, username, or a composite).
var ErrInvalidIdentifier = errors.New("identifier must not be empty")

// ConfigError reports a configuration value that violates its constraint.
// Construction fails fast with one of these; a Limiter never exists in a
// half-configured state.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid lockout config: %s %s", e.Field, e.Reason)
}
