package utils

import (
	"strconv"
	"strings"
)

// StringToInt converts string to int, returns def if error
func StringToInt(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

// StringToUint parses a positive id, ok is false for anything else
func StringToUint(s string) (uint, bool) {
	i, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || i == 0 {
		return 0, false
	}
	return uint(i), true
}

// StringToBool accepts the usual query-string truthy values
func StringToBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on", "t", "y":
		return true
	}
	return false
}
