package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/parlorgames/parlor/cmd/parlor/shared"
	"github.com/parlorgames/parlor/internal/client"
	"github.com/parlorgames/parlor/internal/session"
)

// WatchCmd follows one session and logs every state change.
type WatchCmd struct {
	Game         string        `enum:"shotgun,cards" default:"shotgun" help:"Game to watch (shotgun or cards)"`
	Chat         int64         `required:"" help:"Chat ID of the session"`
	Server       string        `default:"http://localhost:5001" help:"Server URL"`
	Viewer       int64         `help:"User ID whose private notices to include"`
	PollInterval time.Duration `default:"2s" help:"Polling interval when streaming is unavailable"`
	Debug        bool          `help:"Enable debug logging"`
	LogFormat    string        `enum:"console,json" default:"console" help:"Log format"`
}

func (c *WatchCmd) Run() error {
	logger, err := shared.SetupLogger("info", c.LogFormat, c.Debug)
	if err != nil {
		return err
	}
	cl, err := client.New(c.Server,
		client.WithLogger(logger.With().Str("component", "client").Logger()),
		client.WithPollInterval(c.PollInterval),
	)
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	game := session.Game(c.Game)
	logger.Info().Str("game", c.Game).Int64("chat_id", c.Chat).Str("server", c.Server).Msg("Watching session")
	return cl.Watch(ctx, game, c.Chat, c.Viewer, func(s client.Snapshot) error {
		return logSnapshot(logger, s)
	})
}

func logSnapshot(logger zerolog.Logger, s client.Snapshot) error {
	switch s.Game {
	case session.Shotgun:
		p, err := s.Shotgun()
		if err != nil {
			return fmt.Errorf("decode shotgun snapshot: %w", err)
		}
		ev := logger.Info().
			Uint64("version", p.Version).
			Str("phase", p.View.Phase.String()).
			Int("round", p.View.Round).
			Int("shells_left", p.View.ShellsLeft)
		for i, pl := range p.Game.Players {
			ev = ev.Int(fmt.Sprintf("p%d_health", i+1), pl.Health)
		}
		ev.Msg(p.View.Status)
		for _, n := range p.Notices {
			logger.Info().Str("kind", string(n.Kind)).Msg(n.Title + ": " + n.Text)
		}
	case session.Cards:
		p, err := s.Cards()
		if err != nil {
			return fmt.Errorf("decode cards snapshot: %w", err)
		}
		ev := logger.Info().
			Uint64("version", p.Version).
			Str("status", p.Game.Status.String()).
			Str("turn", p.Game.TurnID).
			Int("cards_left", p.Game.CardsLeft)
		for i, pl := range p.Game.Players {
			ev = ev.Int(fmt.Sprintf("p%d_score", i+1), pl.Score)
		}
		ev.Msg("Cards state")
		for _, e := range p.Events {
			if e.Message != "" {
				logger.Info().Str("kind", string(e.Kind)).Msg(e.Message)
			}
		}
	}
	return nil
}
