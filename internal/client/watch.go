package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/parlorgames/parlor/internal/server"
	"github.com/parlorgames/parlor/internal/session"
)

// Snapshot is one state document received while watching. Data decodes as
// server.ShotgunPayload or server.CardsPayload depending on Game.
type Snapshot struct {
	Game    session.Game
	Version uint64
	Data    json.RawMessage
}

// Shotgun decodes a shotgun snapshot.
func (s Snapshot) Shotgun() (server.ShotgunPayload, error) {
	var p server.ShotgunPayload
	err := json.Unmarshal(s.Data, &p)
	return p, err
}

// Cards decodes a card game snapshot.
func (s Snapshot) Cards() (server.CardsPayload, error) {
	var p server.CardsPayload
	err := json.Unmarshal(s.Data, &p)
	return p, err
}

func newSnapshot(game session.Game, data []byte) (Snapshot, error) {
	var head struct {
		Version uint64 `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	return Snapshot{Game: game, Version: head.Version, Data: data}, nil
}

// WatchFunc receives snapshots in version order. Returning an error stops
// Watch with that error.
type WatchFunc func(Snapshot) error

// Watch follows the session of game in chat until ctx is cancelled or fn
// fails. It streams over the websocket and falls back to polling when the
// stream is unavailable or drops. Stale and repeated snapshots are skipped.
// viewer selects which private notices are included.
func (c *Client) Watch(ctx context.Context, game session.Game, chat, viewer int64, fn WatchFunc) error {
	game, err := session.ParseGame(string(game))
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	updates := make(chan Snapshot)

	g.Go(func() error {
		defer close(updates)
		err := c.stream(gctx, game, chat, viewer, updates)
		if gctx.Err() != nil {
			return nil
		}
		c.logger.Warn().Err(err).Str("game", string(game)).Int64("chat_id", chat).Dur("interval", c.poll).Msg("Stream unavailable, polling")
		return c.pollLoop(gctx, game, chat, viewer, updates)
	})

	g.Go(func() error {
		var last uint64
		for snap := range updates {
			if snap.Version != 0 && snap.Version <= last {
				continue
			}
			last = snap.Version
			if err := fn(snap); err != nil {
				return err
			}
		}
		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)) {
		return nil
	}
	return err
}

func (c *Client) streamURL(game session.Game, chat, viewer int64) string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/ws/" + string(game) + "/" + strconv.FormatInt(chat, 10)
	u.RawQuery = viewerQuery(viewer).Encode()
	return u.String()
}

// stream forwards websocket snapshots until the connection drops.
func (c *Client) stream(ctx context.Context, game session.Game, chat, viewer int64, out chan<- Snapshot) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.streamURL(game, chat, viewer), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	defer stop()

	c.logger.Debug().Str("game", string(game)).Int64("chat_id", chat).Msg("Streaming")
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		snap, err := newSnapshot(game, data)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Dropping snapshot")
			continue
		}
		select {
		case out <- snap:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pollLoop fetches the state now and on every tick. A missing session ends
// the watch.
func (c *Client) pollLoop(ctx context.Context, game session.Game, chat, viewer int64, out chan<- Snapshot) error {
	ticker := c.clock.NewTicker(c.poll, "client", "poll")
	defer ticker.Stop()

	for {
		snap, err := c.fetch(ctx, game, chat, viewer)
		switch {
		case err == nil:
			select {
			case out <- snap:
			case <-ctx.Done():
				return nil
			}
		case IsNotFound(err):
			return err
		case ctx.Err() != nil:
			return nil
		default:
			c.logger.Warn().Err(err).Int64("chat_id", chat).Msg("Poll failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Client) fetch(ctx context.Context, game session.Game, chat, viewer int64) (Snapshot, error) {
	var (
		path  string
		query url.Values
	)
	if game == session.Shotgun {
		path, query = chatPath("/api/shotgun/sessions/", chat, ""), viewerQuery(viewer)
	} else {
		path = chatPath("/api/cards/game/", chat, "")
	}
	data, err := c.get(ctx, path, query)
	if err != nil {
		return Snapshot{}, err
	}
	return newSnapshot(game, data)
}
