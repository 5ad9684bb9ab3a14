package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:5001", cfg.Addr())
}

func TestParseOverridesDefaults(t *testing.T) {
	t.Parallel()

	src := `
server {
  address     = "0.0.0.0"
  port        = 9000
  log_format  = "json"
  round_delay = "500ms"
  idle_ttl    = "1h"
  seed        = 42
}

shotgun {
  max_rounds = 3
}

stakes {
  real = 0.5
}
`
	cfg, err := Parse([]byte(src), "parlor.hcl")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 500*time.Millisecond, cfg.RoundDelay)
	assert.Equal(t, time.Hour, cfg.IdleTTL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval, "untouched values keep defaults")
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(42), *cfg.Seed)
	assert.Equal(t, 3, cfg.MaxRounds)
	assert.Equal(t, 6, cfg.Decks)
	assert.Equal(t, 10.0, cfg.TestStake)
	assert.Equal(t, 0.5, cfg.RealStake)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "parlor.hcl")
	require.NoError(t, os.WriteFile(path, []byte("cards {\n  decks = 2\n}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Decks)
	assert.Nil(t, cfg.Seed)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"syntax":        "server {",
		"unknown block": "lobby {}\n",
		"unknown field": "server {\n  colour = \"red\"\n}\n",
		"bad duration":  "server {\n  round_delay = \"soon\"\n}\n",
		"wrong type":    "shotgun {\n  max_rounds = \"five\"\n}\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(src), "bad.hcl")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"round delay", func(c *Config) { c.RoundDelay = -time.Second }},
		{"idle ttl", func(c *Config) { c.IdleTTL = 0 }},
		{"max rounds", func(c *Config) { c.MaxRounds = 0 }},
		{"decks", func(c *Config) { c.Decks = 9 }},
		{"stake", func(c *Config) { c.TestStake = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
