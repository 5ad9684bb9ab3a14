package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"

	"github.com/parlorgames/parlor/cmd/parlor/shared"
	"github.com/parlorgames/parlor/internal/randutil"
	"github.com/parlorgames/parlor/internal/shotgun"
	"github.com/parlorgames/parlor/internal/tui"
)

// PlayCmd runs a local match with both players at one keyboard.
type PlayCmd struct {
	Seed       *int64        `help:"Deterministic RNG seed (optional)"`
	Rounds     int           `default:"5" help:"Rounds in the match"`
	Names      []string      `default:"Player 1,Player 2" help:"The two player names, comma separated"`
	RoundDelay time.Duration `default:"2s" help:"Pause before reloading after a round"`
	NoColor    bool          `help:"Disable colours"`
	LogFile    string        `type:"path" help:"Write debug logs to this file"`
}

func (c *PlayCmd) Run() error {
	if len(c.Names) != 2 {
		return fmt.Errorf("need exactly two names, got %d", len(c.Names))
	}
	if c.Rounds < 1 {
		return fmt.Errorf("rounds must be positive")
	}

	logger := log.New(io.Discard)
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logger = log.NewWithOptions(f, log.Options{Level: log.DebugLevel, ReportTimestamp: true})
	}

	seed, _ := randutil.Seed(c.Seed)
	logger.Info("Starting match", "seed", seed, "rounds", c.Rounds)
	engine := shotgun.New(randutil.New(seed), shotgun.WithMaxRounds(c.Rounds))
	m := tui.NewModel(engine,
		shotgun.Seat{ID: "1", Name: c.Names[0]},
		shotgun.Seat{ID: "2", Name: c.Names[1]},
		tui.WithLogger(logger),
		tui.WithRoundDelay(c.RoundDelay),
	)

	ctx, cancel := shared.SetupSignalHandler(zerolog.Nop())
	defer cancel()
	if err := tui.Run(ctx, m, tui.ColorProfile(c.NoColor)); err != nil {
		return err
	}

	final := m.State()
	fmt.Println(final.Status())
	return nil
}
