package utils

import (
	"strings"
	"time"

	"github.com/yukikurage/todo-tracker/internal/constants"
)

// alertLayouts are the accepted formats for an alert due-at value, tried in order.
var alertLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	constants.DateLayout,
}

// Today returns the calendar date of now in UTC.
func Today(now time.Time) string {
	return now.UTC().Format(constants.DateLayout)
}

// IsDate reports whether s is a YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	_, err := time.Parse(constants.DateLayout, s)
	return err == nil
}

// ParseAlertTime parses a user supplied due-at value. Blank or unparseable
// input yields nil.
func ParseAlertTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range alertLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// OptionalString trims s and returns nil when nothing is left.
func OptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// UniqueStrings removes duplicate values from a slice, keeping the first occurrence.
func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
