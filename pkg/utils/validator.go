package utils

import (
	"regexp"
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02"

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// IsISODate reports whether s is a real calendar date in YYYY-MM-DD form
func IsISODate(s string) bool {
	if len(s) != len(isoDateLayout) {
		return false
	}
	_, err := time.Parse(isoDateLayout, s)
	return err == nil
}

// SanitizeString strips control characters other than tab and newlines and
// trims surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
