// Package models - Service configuration and operational settings.
// This file defines the configuration structures for all service components.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, guard, throttle, etc.)
// - Environment-friendly defaults that work out of the box
// - Comprehensive validation to catch misconfigurations early
// - Security-first approach with safe defaults
package models

import (
	"errors"
	"fmt"
	"time"
)

// Config is the root configuration structure containing all service settings.
//
// Configuration Structure:
// - Server: HTTP server and network settings
// - Guard: brute-force lockout policies (per-IP and per-username)
// - Throttle: request-level rate limiting in front of the API
// - Security: admin API authentication
// - Logging: structured logging and output configuration
// - Metrics: Prometheus metrics endpoint
// - Observability: OpenTelemetry tracing
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Guard         GuardConfig         `yaml:"guard" json:"guard"`
	Throttle      ThrottleConfig      `yaml:"throttle" json:"throttle"`
	Security      SecurityConfig      `yaml:"security" json:"security"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

// GuardConfig pairs the two lockout policies. The IP policy is lenient
// because many users can share an address (NAT, offices); the username policy
// is strict because credential stuffing targets individual accounts.
type GuardConfig struct {
	IP       PolicyConfig `yaml:"ip" json:"ip"`
	Username PolicyConfig `yaml:"username" json:"username"`
}

// PolicyConfig describes one sliding-window lockout policy.
type PolicyConfig struct {
	MaxAttempts   int           `yaml:"max_attempts" json:"max_attempts"`
	Window        time.Duration `yaml:"window" json:"window"`
	Lockout       time.Duration `yaml:"lockout" json:"lockout"`
	RetentionIdle time.Duration `yaml:"retention_idle" json:"retention_idle"`
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

type ThrottleConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

type SecurityConfig struct {
	// EnableAdminAuth gates the admin surface (lockout inspection, resets,
	// user registration) behind a bearer token.
	EnableAdminAuth bool   `yaml:"enable_admin_auth" json:"enable_admin_auth"`
	AdminToken      string `yaml:"admin_token" json:"admin_token"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // "stdout" or "otlp"
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Default Values Rationale:
// - Port 8080: standard non-privileged HTTP port
// - 30-second timeouts: balance between user experience and resource protection
// - IP policy 20 attempts / 5 min, username policy 5 attempts / 10 min:
//   lenient for shared addresses, strict for targeted accounts
// - Throttle enabled: shape raw request volume before the lockout logic runs
// - Structured JSON logging: better for log aggregation and analysis
// - Metrics enabled by default for monitoring
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
		},
		Guard: GuardConfig{
			IP: PolicyConfig{
				MaxAttempts:   20,
				Window:        5 * time.Minute,
				Lockout:       5 * time.Minute,
				RetentionIdle: 10 * time.Minute,
				SweepInterval: 5 * time.Minute,
			},
			Username: PolicyConfig{
				MaxAttempts:   5,
				Window:        10 * time.Minute,
				Lockout:       10 * time.Minute,
				RetentionIdle: 20 * time.Minute,
				SweepInterval: 5 * time.Minute,
			},
		},
		Throttle: ThrottleConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			BurstSize:         10,
			CleanupInterval:   5 * time.Minute,
		},
		Security: SecurityConfig{
			EnableAdminAuth: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "bruteguard",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Guard.Validate(); err != nil {
		return fmt.Errorf("invalid guard config: %w", err)
	}

	if err := c.Throttle.Validate(); err != nil {
		return fmt.Errorf("invalid throttle config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (gc *GuardConfig) Validate() error {
	if err := gc.IP.Validate(); err != nil {
		return fmt.Errorf("ip policy: %w", err)
	}
	if err := gc.Username.Validate(); err != nil {
		return fmt.Errorf("username policy: %w", err)
	}
	return nil
}

func (pc *PolicyConfig) Validate() error {
	if pc.MaxAttempts <= 0 {
		return errors.New("max attempts must be positive")
	}

	if pc.Window < 0 {
		return errors.New("window cannot be negative")
	}

	if pc.Lockout <= 0 {
		return errors.New("lockout must be positive")
	}

	if pc.RetentionIdle <= 0 {
		return errors.New("retention idle must be positive")
	}

	if pc.RetentionIdle < pc.Window {
		return errors.New("retention idle must be at least the window")
	}

	if pc.SweepInterval < 0 {
		return errors.New("sweep interval cannot be negative")
	}

	return nil
}

func (tc *ThrottleConfig) Validate() error {
	if !tc.Enabled {
		return nil
	}

	if tc.RequestsPerMinute <= 0 {
		return errors.New("requests per minute must be positive")
	}

	if tc.BurstSize <= 0 {
		return errors.New("burst size must be positive")
	}

	if tc.CleanupInterval <= 0 {
		return errors.New("cleanup interval must be positive")
	}

	return nil
}

func (sec *SecurityConfig) Validate() error {
	if sec.EnableAdminAuth && sec.AdminToken == "" {
		return errors.New("admin token is required when admin auth is enabled")
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	found := false
	for _, vl := range validLevels {
		if lc.Level == vl {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := []string{"json", "text"}
	found = false
	for _, vf := range validFormats {
		if lc.Format == vf {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := []string{"stdout", "stderr", "file"}
	found = false
	for _, vo := range validOutputs {
		if lc.Output == vo {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}

	if !oc.Tracing.Enabled {
		return nil
	}

	if oc.Tracing.Exporter != "stdout" && oc.Tracing.Exporter != "otlp" {
		return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.Exporter == "otlp" && oc.Tracing.OTLPEndpoint == "" {
		return errors.New("OTLP endpoint is required for the otlp exporter")
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}

	return nil
}
