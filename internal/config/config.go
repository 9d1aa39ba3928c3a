package config

import (
	"bruteguard/internal/models"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// deprecatedConfig mirrors removed config fields for detecting stale operator configs.
type deprecatedConfig struct {
	Guard struct {
		MaxAttempts interface{} `yaml:"max_attempts"`
		Window      interface{} `yaml:"window"`
	} `yaml:"guard"`
	Security struct {
		RateLimit interface{} `yaml:"rate_limit"`
	} `yaml:"security"`
}

// warnDeprecatedKeys logs a warning for each removed config key found in the YAML data.
// The service continues to start normally - these keys are silently ignored by the main decoder.
func warnDeprecatedKeys(data []byte) {
	var dep deprecatedConfig
	if err := yaml.Unmarshal(data, &dep); err != nil {
		return
	}
	if dep.Guard.MaxAttempts != nil || dep.Guard.Window != nil {
		slog.Warn("Flat guard settings are no longer supported; set guard.ip.* and guard.username.* instead.", "config_key", "guard.max_attempts")
	}
	if dep.Security.RateLimit != nil {
		slog.Warn("Config key has moved; request throttling is configured under the throttle section.", "config_key", "security.rate_limit")
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	warnDeprecatedKeys(data)
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("BRUTEGUARD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("BRUTEGUARD_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("BRUTEGUARD_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("BRUTEGUARD_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("BRUTEGUARD_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("BRUTEGUARD_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("BRUTEGUARD_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("BRUTEGUARD_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Guard policies
	loadPolicyFromEnvironment(&config.Guard.IP, "BRUTEGUARD_IP")
	loadPolicyFromEnvironment(&config.Guard.Username, "BRUTEGUARD_USERNAME")

	// Throttle configuration
	if enabled := os.Getenv("BRUTEGUARD_THROTTLE_ENABLED"); enabled != "" {
		config.Throttle.Enabled = strings.ToLower(enabled) == "true"
	}

	if rpm := os.Getenv("BRUTEGUARD_THROTTLE_RPM"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			config.Throttle.RequestsPerMinute = n
		}
	}

	if burst := os.Getenv("BRUTEGUARD_THROTTLE_BURST"); burst != "" {
		if n, err := strconv.Atoi(burst); err == nil {
			config.Throttle.BurstSize = n
		}
	}

	if cleanup := os.Getenv("BRUTEGUARD_THROTTLE_CLEANUP_INTERVAL"); cleanup != "" {
		if d, err := time.ParseDuration(cleanup); err == nil {
			config.Throttle.CleanupInterval = d
		}
	}

	// Security configuration
	if auth := os.Getenv("BRUTEGUARD_ENABLE_ADMIN_AUTH"); auth != "" {
		config.Security.EnableAdminAuth = strings.ToLower(auth) == "true"
	}

	// Admin token from environment
	if token := os.Getenv("BRUTEGUARD_ADMIN_TOKEN"); token != "" {
		config.Security.AdminToken = token
	}

	// Logging configuration
	if level := os.Getenv("BRUTEGUARD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("BRUTEGUARD_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("BRUTEGUARD_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("BRUTEGUARD_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("BRUTEGUARD_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("BRUTEGUARD_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("BRUTEGUARD_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Tracing configuration
	if tracing := os.Getenv("BRUTEGUARD_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("BRUTEGUARD_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("BRUTEGUARD_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}

	if rate := os.Getenv("BRUTEGUARD_TRACING_SAMPLE_RATE"); rate != "" {
		if f, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Observability.Tracing.SampleRate = f
		}
	}
}

// loadPolicyFromEnvironment applies env overrides for one lockout policy,
// e.g. BRUTEGUARD_USERNAME_MAX_ATTEMPTS or BRUTEGUARD_IP_WINDOW.
func loadPolicyFromEnvironment(policy *models.PolicyConfig, prefix string) {
	if attempts := os.Getenv(prefix + "_MAX_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil {
			policy.MaxAttempts = n
		}
	}

	if window := os.Getenv(prefix + "_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			policy.Window = d
		}
	}

	if lockout := os.Getenv(prefix + "_LOCKOUT"); lockout != "" {
		if d, err := time.ParseDuration(lockout); err == nil {
			policy.Lockout = d
		}
	}

	if retention := os.Getenv(prefix + "_RETENTION_IDLE"); retention != "" {
		if d, err := time.ParseDuration(retention); err == nil {
			policy.RetentionIdle = d
		}
	}

	if sweep := os.Getenv(prefix + "_SWEEP_INTERVAL"); sweep != "" {
		if d, err := time.ParseDuration(sweep); err == nil {
			policy.SweepInterval = d
		}
	}
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Get default config with some example values
	config := models.NewDefaultConfig()

	// Protect the admin surface in the example
	config.Security.EnableAdminAuth = true
	config.Security.AdminToken = "change-me-admin-token"

	// Example TLS configuration
	config.Server.TLSEnabled = false
	config.Server.TLSCertFile = "/path/to/cert.pem"
	config.Server.TLSKeyFile = "/path/to/key.pem"

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// Write to file
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
