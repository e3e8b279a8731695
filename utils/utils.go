package utils

import (
	"slices"
	"strings"
)

func Contains(slice []string, value string) bool {
	return slices.Contains(slice, value)
}

// SameCity compares two city names ignoring case and surrounding space.
func SameCity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
