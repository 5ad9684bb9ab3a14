// Package config loads server settings from an HCL file.
//
//	server {
//	  address      = "0.0.0.0"
//	  port         = 5001
//	  round_delay  = "2s"
//	  idle_ttl     = "30m"
//	  archive_dir  = "matches"
//	}
//
//	shotgun {
//	  max_rounds = 5
//	}
//
//	cards {
//	  decks = 6
//	}
//
//	stakes {
//	  test = 10
//	  real = 0.01
//	}
//
// Every block and attribute is optional; missing values keep their defaults.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
)

// Config is the resolved server configuration.
type Config struct {
	Address      string
	Port         int
	LogLevel     string
	LogFormat    string
	PollInterval time.Duration
	RoundDelay   time.Duration
	IdleTTL      time.Duration
	ArchiveDir   string
	// Seed fixes the random source when set.
	Seed *int64

	MaxRounds int
	Decks     int
	TestStake float64
	RealStake float64
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Address:      "localhost",
		Port:         5001,
		LogLevel:     "info",
		LogFormat:    "console",
		PollInterval: 2 * time.Second,
		RoundDelay:   2 * time.Second,
		IdleTTL:      30 * time.Minute,
		ArchiveDir:   "archive",
		MaxRounds:    5,
		Decks:        6,
		TestStake:    10.0,
		RealStake:    0.01,
	}
}

type fileConfig struct {
	Server  *serverBlock  `hcl:"server,block"`
	Shotgun *shotgunBlock `hcl:"shotgun,block"`
	Cards   *cardsBlock   `hcl:"cards,block"`
	Stakes  *stakesBlock  `hcl:"stakes,block"`
}

type serverBlock struct {
	Address      *string `hcl:"address,optional"`
	Port         *int    `hcl:"port,optional"`
	LogLevel     *string `hcl:"log_level,optional"`
	LogFormat    *string `hcl:"log_format,optional"`
	PollInterval *string `hcl:"poll_interval,optional"`
	RoundDelay   *string `hcl:"round_delay,optional"`
	IdleTTL      *string `hcl:"idle_ttl,optional"`
	ArchiveDir   *string `hcl:"archive_dir,optional"`
	Seed         *int64  `hcl:"seed,optional"`
}

type shotgunBlock struct {
	MaxRounds *int `hcl:"max_rounds,optional"`
}

type cardsBlock struct {
	Decks *int `hcl:"decks,optional"`
}

type stakesBlock struct {
	Test *float64 `hcl:"test,optional"`
	Real *float64 `hcl:"real,optional"`
}

// Load reads filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Default()
	if err := fc.apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	if s := fc.Server; s != nil {
		set(&cfg.Address, s.Address)
		set(&cfg.Port, s.Port)
		set(&cfg.LogLevel, s.LogLevel)
		set(&cfg.LogFormat, s.LogFormat)
		set(&cfg.ArchiveDir, s.ArchiveDir)
		cfg.Seed = s.Seed

		durations := []struct {
			name string
			src  *string
			dst  *time.Duration
		}{
			{"poll_interval", s.PollInterval, &cfg.PollInterval},
			{"round_delay", s.RoundDelay, &cfg.RoundDelay},
			{"idle_ttl", s.IdleTTL, &cfg.IdleTTL},
		}
		for _, d := range durations {
			if d.src == nil {
				continue
			}
			v, err := time.ParseDuration(*d.src)
			if err != nil {
				return fmt.Errorf("server.%s: %w", d.name, err)
			}
			*d.dst = v
		}
	}
	if fc.Shotgun != nil {
		set(&cfg.MaxRounds, fc.Shotgun.MaxRounds)
	}
	if fc.Cards != nil {
		set(&cfg.Decks, fc.Cards.Decks)
	}
	if fc.Stakes != nil {
		set(&cfg.TestStake, fc.Stakes.Test)
		set(&cfg.RealStake, fc.Stakes.Real)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format %q: want console or json", c.LogFormat)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.RoundDelay < 0 {
		return fmt.Errorf("round delay must not be negative")
	}
	if c.IdleTTL <= 0 {
		return fmt.Errorf("idle ttl must be positive")
	}
	if c.MaxRounds < 1 || c.MaxRounds > 20 {
		return fmt.Errorf("shotgun max rounds must be between 1 and 20")
	}
	if c.Decks < 1 || c.Decks > 8 {
		return fmt.Errorf("cards decks must be between 1 and 8")
	}
	if c.TestStake <= 0 || c.RealStake <= 0 {
		return fmt.Errorf("stakes must be positive")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}
