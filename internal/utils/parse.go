// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"strconv"
	"time"
)

// AtoiDefault converts a string to an int using strconv.Atoi. If the string
// is empty or cannot be parsed as an integer, it returns the provided
// default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParseDateDefault parses s as a calendar date ("2006-01-02") in loc,
// returning def when s is empty or malformed. A nil loc means UTC.
func ParseDateDefault(s string, loc *time.Location, def time.Time) time.Time {
	if s == "" {
		return def
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return def
	}
	return t
}

// ParseTimeDefault parses s as RFC 3339 first and falls back to a bare
// calendar date in loc. Malformed or empty input yields def.
func ParseTimeDefault(s string, loc *time.Location, def time.Time) time.Time {
	if s == "" {
		return def
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return ParseDateDefault(s, loc, def)
}
