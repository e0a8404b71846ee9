package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BLUESKY_PDS", "")
	t.Setenv("BLUESKY_HANDLE", "")
	t.Setenv("BLUESKY_APP_PASSWORD", "")

	cfg := Load()
	assert.Equal(t, "https://bsky.social", cfg.PDS)
	assert.Empty(t, cfg.Handle)
	assert.Empty(t, cfg.AppPassword)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BLUESKY_PDS", "https://pds.example.com")
	t.Setenv("BLUESKY_HANDLE", "user.bsky.social")
	t.Setenv("BLUESKY_APP_PASSWORD", "abcd-efgh-ijkl-mnop")

	cfg := Load()
	assert.Equal(t, "https://pds.example.com", cfg.PDS)
	assert.Equal(t, "user.bsky.social", cfg.Handle)
	assert.Equal(t, "abcd-efgh-ijkl-mnop", cfg.AppPassword)
}
