// Package os complements the standard os package.
package os

import "os"

// GetEnvOr returns the environment variable name.
// If it is missing or empty, it returns fallback.
func GetEnvOr(name, fallback string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return fallback
}
