package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	// Test server defaults
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 30*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, config.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, config.Server.IdleTimeout)
	assert.False(t, config.Server.TLSEnabled)

	// Test guard defaults: lenient per-IP, strict per-username
	assert.Equal(t, 20, config.Guard.IP.MaxAttempts)
	assert.Equal(t, 5*time.Minute, config.Guard.IP.Window)
	assert.Equal(t, 5*time.Minute, config.Guard.IP.Lockout)
	assert.Equal(t, 10*time.Minute, config.Guard.IP.RetentionIdle)
	assert.Equal(t, 5, config.Guard.Username.MaxAttempts)
	assert.Equal(t, 10*time.Minute, config.Guard.Username.Window)
	assert.Equal(t, 10*time.Minute, config.Guard.Username.Lockout)
	assert.Equal(t, 20*time.Minute, config.Guard.Username.RetentionIdle)

	// Test throttle defaults
	assert.True(t, config.Throttle.Enabled)
	assert.Equal(t, 60, config.Throttle.RequestsPerMinute)
	assert.Equal(t, 10, config.Throttle.BurstSize)
	assert.Equal(t, 5*time.Minute, config.Throttle.CleanupInterval)

	// Test security defaults
	assert.False(t, config.Security.EnableAdminAuth)
	assert.Empty(t, config.Security.AdminToken)

	// Test logging defaults
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, "stdout", config.Logging.Output)

	// Test metrics defaults
	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, "/metrics", config.Metrics.Path)
	assert.Equal(t, 9090, config.Metrics.Port)

	// Test observability defaults
	assert.Equal(t, "bruteguard", config.Observability.ServiceName)
	assert.False(t, config.Observability.Tracing.Enabled)
	assert.Equal(t, "stdout", config.Observability.Tracing.Exporter)
	assert.Equal(t, 1.0, config.Observability.Tracing.SampleRate)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid default config",
			mutate: func(c *Config) {},
		},
		{
			name:        "invalid server config",
			mutate:      func(c *Config) { c.Server.Port = -1 },
			expectError: true,
			errorMsg:    "invalid server config",
		},
		{
			name:        "invalid guard config",
			mutate:      func(c *Config) { c.Guard.IP.MaxAttempts = 0 },
			expectError: true,
			errorMsg:    "invalid guard config",
		},
		{
			name: "invalid throttle config",
			mutate: func(c *Config) {
				c.Throttle.Enabled = true
				c.Throttle.RequestsPerMinute = 0
			},
			expectError: true,
			errorMsg:    "invalid throttle config",
		},
		{
			name: "invalid security config",
			mutate: func(c *Config) {
				c.Security.EnableAdminAuth = true
				c.Security.AdminToken = ""
			},
			expectError: true,
			errorMsg:    "invalid security config",
		},
		{
			name:        "invalid logging config",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "invalid logging config",
		},
		{
			name:        "invalid metrics config",
			mutate:      func(c *Config) { c.Metrics.Port = 0 },
			expectError: true,
			errorMsg:    "invalid metrics config",
		},
		{
			name:        "invalid observability config",
			mutate:      func(c *Config) { c.Observability.ServiceName = "" },
			expectError: true,
			errorMsg:    "invalid observability config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      ServerConfig
		expectError bool
	}{
		{
			name:   "valid config",
			config: ServerConfig{Port: 8080, Host: "localhost"},
		},
		{
			name:        "port too low",
			config:      ServerConfig{Port: 0, Host: "localhost"},
			expectError: true,
		},
		{
			name:        "port too high",
			config:      ServerConfig{Port: 70000, Host: "localhost"},
			expectError: true,
		},
		{
			name:        "empty host",
			config:      ServerConfig{Port: 8080, Host: ""},
			expectError: true,
		},
		{
			name:        "negative read timeout",
			config:      ServerConfig{Port: 8080, Host: "localhost", ReadTimeout: -time.Second},
			expectError: true,
		},
		{
			name:        "TLS enabled without cert",
			config:      ServerConfig{Port: 8080, Host: "localhost", TLSEnabled: true, TLSKeyFile: "key.pem"},
			expectError: true,
		},
		{
			name:        "TLS enabled without key",
			config:      ServerConfig{Port: 8080, Host: "localhost", TLSEnabled: true, TLSCertFile: "cert.pem"},
			expectError: true,
		},
		{
			name: "TLS enabled with both files",
			config: ServerConfig{
				Port: 8080, Host: "localhost",
				TLSEnabled: true, TLSCertFile: "cert.pem", TLSKeyFile: "key.pem",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicyConfig_Validate(t *testing.T) {
	valid := PolicyConfig{
		MaxAttempts:   5,
		Window:        time.Minute,
		Lockout:       5 * time.Minute,
		RetentionIdle: 10 * time.Minute,
	}

	tests := []struct {
		name        string
		mutate      func(*PolicyConfig)
		expectError bool
	}{
		{name: "valid", mutate: func(p *PolicyConfig) {}},
		{name: "zero window is valid", mutate: func(p *PolicyConfig) { p.Window = 0 }},
		{name: "zero max attempts", mutate: func(p *PolicyConfig) { p.MaxAttempts = 0 }, expectError: true},
		{name: "negative window", mutate: func(p *PolicyConfig) { p.Window = -time.Second }, expectError: true},
		{name: "zero lockout", mutate: func(p *PolicyConfig) { p.Lockout = 0 }, expectError: true},
		{name: "zero retention", mutate: func(p *PolicyConfig) { p.RetentionIdle = 0 }, expectError: true},
		{name: "retention below window", mutate: func(p *PolicyConfig) { p.RetentionIdle = 30 * time.Second }, expectError: true},
		{name: "negative sweep interval", mutate: func(p *PolicyConfig) { p.SweepInterval = -time.Second }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestThrottleConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      ThrottleConfig
		expectError bool
	}{
		{
			name:   "disabled skips validation",
			config: ThrottleConfig{Enabled: false},
		},
		{
			name: "valid enabled",
			config: ThrottleConfig{
				Enabled: true, RequestsPerMinute: 60, BurstSize: 10, CleanupInterval: time.Minute,
			},
		},
		{
			name:        "zero rpm",
			config:      ThrottleConfig{Enabled: true, BurstSize: 10, CleanupInterval: time.Minute},
			expectError: true,
		},
		{
			name:        "zero burst",
			config:      ThrottleConfig{Enabled: true, RequestsPerMinute: 60, CleanupInterval: time.Minute},
			expectError: true,
		},
		{
			name:        "zero cleanup interval",
			config:      ThrottleConfig{Enabled: true, RequestsPerMinute: 60, BurstSize: 10},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      LoggingConfig
		expectError bool
	}{
		{
			name:   "valid config",
			config: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name:        "invalid level",
			config:      LoggingConfig{Level: "trace", Format: "json", Output: "stdout"},
			expectError: true,
		},
		{
			name:        "invalid format",
			config:      LoggingConfig{Level: "info", Format: "xml", Output: "stdout"},
			expectError: true,
		},
		{
			name:        "invalid output",
			config:      LoggingConfig{Level: "info", Format: "json", Output: "syslog"},
			expectError: true,
		},
		{
			name:        "file output without path",
			config:      LoggingConfig{Level: "info", Format: "json", Output: "file"},
			expectError: true,
		},
		{
			name:   "file output with path",
			config: LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: "/var/log/app.log"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestObservabilityConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      ObservabilityConfig
		expectError bool
	}{
		{
			name:   "tracing disabled",
			config: ObservabilityConfig{ServiceName: "svc", Tracing: TracingConfig{Enabled: false}},
		},
		{
			name:        "empty service name",
			config:      ObservabilityConfig{ServiceName: ""},
			expectError: true,
		},
		{
			name: "valid stdout exporter",
			config: ObservabilityConfig{
				ServiceName: "svc",
				Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 0.5},
			},
		},
		{
			name: "otlp without endpoint",
			config: ObservabilityConfig{
				ServiceName: "svc",
				Tracing:     TracingConfig{Enabled: true, Exporter: "otlp", SampleRate: 1},
			},
			expectError: true,
		},
		{
			name: "unknown exporter",
			config: ObservabilityConfig{
				ServiceName: "svc",
				Tracing:     TracingConfig{Enabled: true, Exporter: "jaeger", SampleRate: 1},
			},
			expectError: true,
		},
		{
			name: "sample rate out of range",
			config: ObservabilityConfig{
				ServiceName: "svc",
				Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 1.5},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
