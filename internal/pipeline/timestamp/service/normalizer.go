package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const maxFractionDigits = 6

var (
	isoPattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})(?:\.(\d+))?(Z|[+-]\d{2}:?\d{2})?$`)
	spacePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})(?:\.(\d+))?`)
	slashPattern = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2})(?:\.(\d+))?`)
)

var (
	ErrEmptyTimestamp      = errors.New("timestamp is empty")
	ErrUnparsableTimestamp = errors.New("timestamp does not match a known format")
)

// NormalizeTimestamp converts a log timestamp into a UTC instant. ISO-8601 timestamps honour their
// offset; space and slash separated timestamps are taken as UTC and any trailing offset is ignored.
// Fractions are truncated to microseconds.
func NormalizeTimestamp(timestamp string) (time.Time, error) {
	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		return time.Time{}, ErrEmptyTimestamp
	}

	if matches := isoPattern.FindStringSubmatch(timestamp); matches != nil {
		offset := matches[3]
		switch {
		case offset == "" || offset == "Z":
			offset = "+00:00"
		case !strings.Contains(offset, ":"):
			offset = offset[:3] + ":" + offset[3:]
		}
		value := matches[1] + truncateFraction(matches[2]) + offset
		parsed, err := time.Parse("2006-01-02T15:04:05.000000Z07:00", value)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse ISO timestamp '%s': %w", timestamp, err)
		}
		return parsed.UTC(), nil
	}

	if matches := spacePattern.FindStringSubmatch(timestamp); matches != nil {
		value := matches[1] + truncateFraction(matches[2])
		parsed, err := time.ParseInLocation("2006-01-02 15:04:05.000000", value, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", timestamp, err)
		}
		return parsed, nil
	}

	if matches := slashPattern.FindStringSubmatch(timestamp); matches != nil {
		value := matches[1] + truncateFraction(matches[2])
		parsed, err := time.ParseInLocation("01/02/2006 15:04:05.000000", value, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", timestamp, err)
		}
		return parsed, nil
	}

	return time.Time{}, ErrUnparsableTimestamp
}

// InstantOf returns nil when the timestamp cannot be normalized.
func InstantOf(timestamp string) *time.Time {
	instant, err := NormalizeTimestamp(timestamp)
	if err != nil {
		return nil
	}
	return &instant
}

// CanonicalString is the form NormalizeTimestamp maps back onto the same instant.
func CanonicalString(instant time.Time) string {
	return instant.UTC().Format(time.RFC3339Nano)
}

// truncateFraction always returns a 6 digit fraction so one layout covers every precision.
func truncateFraction(fraction string) string {
	if len(fraction) > maxFractionDigits {
		fraction = fraction[:maxFractionDigits]
	} else if len(fraction) < maxFractionDigits {
		fraction = fraction + strings.Repeat("0", maxFractionDigits-len(fraction))
	}
	return "." + fraction
}
