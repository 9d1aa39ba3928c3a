package lockout

import "time"

// Config holds the policy knobs for a Limiter. All durations are wall-clock.
type Config struct {
	// MaxAttempts is the number of in-window failures that triggers a lockout.
	MaxAttempts int

	// Window is the sliding interval over which failures are counted. Zero is
	// a valid degenerate configuration: only failures stamped at the exact
	// evaluation instant count.
	Window time.Duration

	// Lockout is how long an identifier stays locked once the threshold is
	// crossed.
	Lockout time.Duration

	// RetentionIdle is how long an inactive, unlocked identifier's state
	// survives before the cleanup sweep evicts it. Must be at least Window.
	RetentionIdle time.Duration

	// SweepInterval enables a background eviction goroutine when positive.
	// Zero disables it; correctness never depends on the sweeper because
	// expiry is also checked lazily on every read.
	SweepInterval time.Duration
}

// Validate reports the first constraint violation as a *ConfigError.
func (c Config) Validate() error {
	if c.MaxAttempts <= 0 {
		return &ConfigError{Field: "MaxAttempts", Reason: "must be positive"}
	}
	if c.Window < 0 {
		return &ConfigError{Field: "Window", Reason: "must not be negative"}
	}
	if c.Lockout <= 0 {
		return &ConfigError{Field: "Lockout", Reason: "must be positive"}
	}
	if c.RetentionIdle <= 0 {
		return &ConfigError{Field: "RetentionIdle", Reason: "must be positive"}
	}
	if c.RetentionIdle < c.Window {
		return &ConfigError{Field: "RetentionIdle", Reason: "must be at least Window"}
	}
	if c.SweepInterval < 0 {
		return &ConfigError{Field: "SweepInterval", Reason: "must not be negative"}
	}
	return nil
}
