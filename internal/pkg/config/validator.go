package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field expressions and @descriptors
// (@hourly, @daily, @weekly).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule validates a cron expression using the robfig/cron/v3 parser.
//
// Accepted forms:
//   - "minute hour day month weekday", e.g. "0 */12 * * *"
//   - descriptors, e.g. "@daily"
//
// Validation tool: https://crontab.guru/
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ValidateTimezone validates an IANA timezone name ("UTC",
// "America/Los_Angeles") by loading it.
//
// Loading depends on timezone data being present in the image; UTC offsets
// such as "-08:00" are not accepted.
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}
	return nil
}

// ValidateDuration validates that duration is within [min, max].
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}
	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}
	return nil
}

// ValidateIntRange validates that value is within [min, max].
//
// Example:
//
//	// minimum relevance score is a percentage
//	err := ValidateIntRange(score, 0, 100)
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}
	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is strictly positive.
// Zero is rejected since it usually means "no timeout".
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	return nil
}

// ValidatePort validates a TCP port number.
func ValidatePort(port int) error {
	if err := ValidateIntRange(port, 1, 65535); err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	return nil
}

// ValidateOneOf returns a validator accepting only the given values.
//
// Example:
//
//	result := ParseString("default_status", raw, "draft", ValidateOneOf("draft", "pending", "publish"))
func ValidateOneOf(allowed ...string) func(string) error {
	return func(value string) error {
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}

// IntRange returns a validator for ValidateIntRange with fixed bounds.
func IntRange(min, max int) func(int) error {
	return func(value int) error {
		return ValidateIntRange(value, min, max)
	}
}
