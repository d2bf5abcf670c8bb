package env

import "os"

// Get returns the environment value for key, falling back to def when unset.
func Get(key, def string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return def
}
