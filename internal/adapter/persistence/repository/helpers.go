package repository

import "os"

// getenvDefault keeps table names overridable per environment.
func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
