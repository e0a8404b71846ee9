package config

import "os"

// Config holds the environment-derived defaults for a run. Flags may
// override any of these.
type Config struct {
	// PDS is the base URL of the user's personal data server.
	PDS string

	// Handle is the account handle (e.g. user.bsky.social).
	Handle string

	// AppPassword is the app password for createSession. Supplying it via
	// BLUESKY_APP_PASSWORD keeps it out of the process list.
	AppPassword string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	pds := os.Getenv("BLUESKY_PDS")
	if pds == "" {
		pds = "https://bsky.social"
	}

	return &Config{
		PDS:         pds,
		Handle:      os.Getenv("BLUESKY_HANDLE"),
		AppPassword: os.Getenv("BLUESKY_APP_PASSWORD"),
	}
}
