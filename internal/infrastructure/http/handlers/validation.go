package handlers

import "strings"

// Validation limits.
const (
	MaxEmailLength    = 160
	MaxNameLength     = 60
	MaxDescLength     = 80
	MaxUnitNameLength = 20
	MaxPasswordLength = 255
)

// SanitizeEmail trims and lowercases an email; returns empty if over limit.
func SanitizeEmail(email string) string {
	s := strings.TrimSpace(strings.ToLower(email))
	if len(s) > MaxEmailLength {
		return ""
	}
	return s
}

// SanitizeName trims a display name; returns empty if over limit.
func SanitizeName(name string) string {
	s := strings.TrimSpace(name)
	if len(s) > MaxNameLength {
		return ""
	}
	return s
}

// ValidMetrics reports whether every metric name and unit fits the limits.
func ValidMetrics(metrics map[string]string) bool {
	for name, unit := range metrics {
		if name == "" || len(name) > MaxNameLength || len(unit) > MaxUnitNameLength {
			return false
		}
	}
	return true
}
