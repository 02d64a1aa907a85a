// Package utils provides small, generic helpers shared by the HTTP layer.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a base-10 int after trimming spaces, returning def
// when s is empty or malformed.
//
//	utils.AtoiDefault("42", 0) // 42
//	utils.AtoiDefault("x", 5)  // 5
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampLimit bounds a caller-supplied limit to [1, max]. Non-positive values
// mean "as many as allowed" and return max.
func ClampLimit(n, max int) int {
	if n <= 0 || n > max {
		return max
	}
	return n
}
