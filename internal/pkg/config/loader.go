package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigLoadResult represents the result of loading a configuration value.
// It contains the loaded value, any warnings generated during loading,
// and a flag indicating whether a fallback value was used.
//
// Loaders never fail: an unparseable or invalid value is replaced by the
// default and reported in Warnings.
//
// Example:
//
//	result := LoadEnvDuration("WORKER_RUN_TIMEOUT", 30*time.Minute, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    for _, warning := range result.Warnings {
//	        slog.Warn("configuration fallback", slog.String("warning", warning))
//	    }
//	}
//	timeout := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func ok(v interface{}) ConfigLoadResult {
	return ConfigLoadResult{Value: v}
}

func fallback[T any](key, raw string, reason interface{}, def T) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           def,
		Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", key, raw, reason, def)},
		FallbackApplied: true,
	}
}

// LoadEnvString loads a string value from an environment variable.
// If the environment variable is not set or empty, the default value is returned.
// No validation is performed; use LoadEnvWithFallback if validation is needed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string from envKey and validates it.
// See ParseString.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	return ParseString(envKey, os.Getenv(envKey), defaultValue, validator)
}

// LoadEnvDuration loads a Go duration string ("30s", "1h30m") from envKey.
// See ParseDuration.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return ParseDuration(envKey, os.Getenv(envKey), defaultValue, validator)
}

// LoadEnvInt loads an integer from envKey. See ParseInt.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	return ParseInt(envKey, os.Getenv(envKey), defaultValue, validator)
}

// LoadEnvBool loads a boolean from envKey. See ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	return ParseBool(envKey, os.Getenv(envKey), defaultValue)
}

// ParseString validates raw, a value read for key from any configuration
// source (environment, option store).
//
// Loading behavior:
//  1. If raw is empty: use the default value (no warning)
//  2. If a validator is given and rejects raw: use the default and warn
//  3. Otherwise: use raw
//
// Warning format:
//
//	"Invalid {key}='{value}': {error}, falling back to default '{default}'"
func ParseString(key, raw, defaultValue string, validator func(string) error) ConfigLoadResult {
	if raw == "" {
		return ok(defaultValue)
	}
	if validator != nil {
		if err := validator(raw); err != nil {
			return fallback(key, raw, err, defaultValue)
		}
	}
	return ok(raw)
}

// ParseDuration parses raw with time.ParseDuration and validates the result.
// Empty input yields the default without a warning.
func ParseDuration(key, raw string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	if raw == "" {
		return ok(defaultValue)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback(key, raw, err, defaultValue)
	}
	if validator != nil {
		if err := validator(d); err != nil {
			return fallback(key, raw, err, defaultValue)
		}
	}
	return ok(d)
}

// ParseInt parses raw as a base-10 integer and validates the result.
// Surrounding whitespace, decimals and trailing characters are rejected.
// Empty input yields the default without a warning.
func ParseInt(key, raw string, defaultValue int, validator func(int) error) ConfigLoadResult {
	if raw == "" {
		return ok(defaultValue)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback(key, raw, "invalid integer format", defaultValue)
	}
	if validator != nil {
		if err := validator(n); err != nil {
			return fallback(key, raw, err, defaultValue)
		}
	}
	return ok(n)
}

// ParseBool accepts "1", "t", "true" and "0", "f", "false" in any case
// (plus "yes"/"no" and "on"/"off", which the option store uses for checkboxes).
// Empty input yields the default without a warning.
func ParseBool(key, raw string, defaultValue bool) ConfigLoadResult {
	if raw == "" {
		return ok(defaultValue)
	}
	switch strings.ToLower(raw) {
	case "1", "t", "true", "yes", "on":
		return ok(true)
	case "0", "f", "false", "no", "off":
		return ok(false)
	}
	return fallback(key, raw, "invalid boolean format, expected 'true' or 'false'", defaultValue)
}
