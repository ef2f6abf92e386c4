// Package features resolves the process-wide feature flag set. Flags are read
// once at startup and the resulting struct is passed by value into every
// constructor that needs it; nothing re-reads the environment mid-process.
package features

import (
	"os"
	"strings"
)

// Features gates the optional subsystems. The zero value disables everything.
type Features struct {
	Auth          bool
	Logging       bool
	I18n          bool
	ObjectStorage bool
	Cache         bool
	Queue         bool
	Email         bool
	Notifications bool
	Postgres      bool
	Mongo         bool
	CMS           bool
}

// FromEnv builds the flag set from environment variables. Absent variables
// resolve to the documented default, never to an error.
func FromEnv() Features {
	return Features{
		Auth:          envFlag("FEATURE_AUTH", true),
		Logging:       envFlag("FEATURE_LOGGING", true),
		I18n:          envFlag("FEATURE_I18N", true),
		ObjectStorage: envFlag("FEATURE_S3", false),
		Cache:         envFlag("FEATURE_REDIS", false),
		Queue:         envFlag("FEATURE_QUEUE", false),
		Email:         envFlag("FEATURE_EMAIL", false),
		Notifications: envFlag("FEATURE_NOTIFICATIONS", false),
		Postgres:      envFlag("FEATURE_POSTGRES", false),
		Mongo:         envFlag("FEATURE_MONGO", false),
		CMS:           envFlag("FEATURE_CMS", false),
	}
}

// envFlag parses "true", "1", "yes" and "on" (case-insensitive) as true and
// anything else as false. An unset variable yields the fallback.
func envFlag(name string, fallback bool) bool {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
