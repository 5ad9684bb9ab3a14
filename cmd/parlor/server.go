package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/parlorgames/parlor/cmd/parlor/shared"
	"github.com/parlorgames/parlor/internal/archive"
	"github.com/parlorgames/parlor/internal/config"
	"github.com/parlorgames/parlor/internal/randutil"
	"github.com/parlorgames/parlor/internal/server"
)

// ServerCmd runs the HTTP API. Flags override the config file.
type ServerCmd struct {
	Config     string `short:"c" type:"path" default:"parlor.hcl" help:"HCL config file (missing file uses defaults)"`
	Addr       string `help:"Listen address as host:port"`
	Seed       *int64 `help:"Deterministic RNG seed (optional)"`
	Debug      bool   `help:"Enable debug logging"`
	LogFormat  string `help:"Log format: console or json"`
	ArchiveDir string `type:"path" help:"Directory for finished match records"`
	NoArchive  bool   `help:"Do not archive finished matches"`
}

func (c *ServerCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := c.apply(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := shared.SetupLogger(cfg.LogLevel, cfg.LogFormat, c.Debug)
	if err != nil {
		return err
	}

	seed, explicit := randutil.Seed(cfg.Seed)
	if explicit {
		logger.Info().Int64("seed", seed).Msg("Using deterministic seed")
	} else {
		logger.Info().Int64("seed", seed).Msg("Using random seed")
	}
	opts := []server.Option{server.WithRandom(randutil.NewLocked(seed))}
	if !c.NoArchive {
		opts = append(opts, server.WithArchive(archive.New(cfg.ArchiveDir)))
	}

	srv, err := server.New(cfg, logger, opts...)
	if err != nil {
		return err
	}

	logger.Info().
		Str("address", cfg.Addr()).
		Dur("round_delay", cfg.RoundDelay).
		Dur("idle_ttl", cfg.IdleTTL).
		Int("max_rounds", cfg.MaxRounds).
		Int("decks", cfg.Decks).
		Bool("archive", !c.NoArchive).
		Msg("Starting parlor server")

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()
	return srv.Run(ctx)
}

// apply copies the flags that were set onto cfg.
func (c *ServerCmd) apply(cfg *config.Config) error {
	if c.Addr != "" {
		host, port, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid --addr: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid --addr port %q", port)
		}
		cfg.Address, cfg.Port = host, p
	}
	if c.Seed != nil {
		cfg.Seed = c.Seed
	}
	if c.LogFormat != "" {
		cfg.LogFormat = c.LogFormat
	}
	if c.ArchiveDir != "" {
		cfg.ArchiveDir = c.ArchiveDir
	}
	return nil
}
