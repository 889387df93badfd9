// Package timeutil provides helpers for the UTC-offset timezone strings
// stored on lab records (e.g. "UTC-5", "UTC+05").
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxOffsetHours bounds accepted offsets to real-world values.
const maxOffsetHours = 14

// ParseUTCOffset parses a lab timezone string of the form "UTC±HH" into a
// fixed-offset location named after the input. The offset is whole hours.
func ParseUTCOffset(s string) (*time.Location, error) {
	hours, err := parseOffsetHours(s)
	if err != nil {
		return nil, err
	}
	return time.FixedZone(s, hours*3600), nil
}

// IsUTCOffset reports whether s is a parseable "UTC±HH" string.
func IsUTCOffset(s string) bool {
	_, err := parseOffsetHours(s)
	return err == nil
}

func parseOffsetHours(s string) (int, error) {
	rest, ok := strings.CutPrefix(s, "UTC")
	if !ok {
		return 0, fmt.Errorf("timezone %q does not start with UTC", s)
	}
	if rest == "" {
		return 0, fmt.Errorf("timezone %q has no hour offset", s)
	}
	hours, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid hour offset in timezone %q: %w", s, err)
	}
	if hours < -maxOffsetHours || hours > maxOffsetHours {
		return 0, fmt.Errorf("hour offset %d in timezone %q out of range", hours, s)
	}
	return hours, nil
}
