package config

import "fmt"

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePort checks if a port number is valid.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateLogLevel checks if a log level is valid.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
}

// ValidateLogFormat checks if a log format is valid.
func ValidateLogFormat(format string) error {
	switch format {
	case "json", "console":
		return nil
	default:
		return &ValidationError{Field: "logging.format", Message: "must be one of: json, console"}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}

	switch c.Store.Backend {
	case BackendRedis:
		if c.Store.Redis.Address == "" {
			return &ValidationError{Field: "store.redis.address", Message: "is required"}
		}
	case BackendBadger:
		if !c.Store.Badger.InMemory && c.Store.Badger.Path == "" {
			return &ValidationError{Field: "store.badger.path", Message: "is required"}
		}
	default:
		return &ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("must be %q or %q", BackendRedis, BackendBadger),
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.MaxRequestsPerMinute < 1 {
			return &ValidationError{Field: "rate_limit.max_requests_per_minute", Message: "must be positive"}
		}
		if c.RateLimit.WindowSeconds < 1 {
			return &ValidationError{Field: "rate_limit.window_seconds", Message: "must be positive"}
		}
	}

	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return ValidateLogFormat(c.Logging.Format)
}
