// Package env reads the few settings needed before configuration is loaded,
// such as the log format and the instance id.
package env

import (
	"os"
	"strings"
)

// Prefix namespaces every dispatcher setting.
const Prefix = "PAREJA_"

// Get returns the trimmed value of key, or fallback when it is blank. An
// unprefixed key also answers to its PAREJA_ name, which wins when both are
// set.
func Get(key, fallback string) string {
	if !strings.HasPrefix(key, Prefix) {
		if val := lookup(Prefix + key); val != "" {
			return val
		}
	}
	if val := lookup(key); val != "" {
		return val
	}
	return fallback
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
