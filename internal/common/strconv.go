package common

import "strconv"

// AtoiDefault parses value as an int, falling back to def when the input is
// empty or malformed. Used for query-string limits.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
