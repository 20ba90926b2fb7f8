// Package env reads raw environment variables for the few settings
// needed before the typed configuration is parsed.
package env

import "os"

// Get looks up key in the process environment, returning fallback when
// the variable is unset or empty.
func Get(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}
