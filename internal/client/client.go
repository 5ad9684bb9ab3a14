// Package client talks to a parlor server over its HTTP API and follows
// matches through the websocket stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/parlorgames/parlor/internal/server"
	"github.com/parlorgames/parlor/internal/session"
	"github.com/parlorgames/parlor/internal/shotgun"
)

// DefaultPollInterval is how often Watch polls when streaming is unavailable.
const DefaultPollInterval = 2 * time.Second

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used by Watch.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClock replaces the wall clock that drives polling.
func WithClock(clock quartz.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.poll = d
		}
	}
}

// Client is a parlor API client. It is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger zerolog.Logger
	clock  quartz.Clock
	poll   time.Duration
}

// New returns a client for the server at serverURL. Websocket and plain
// http schemes are both accepted.
func New(serverURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return nil, fmt.Errorf("invalid server URL %q: unsupported scheme", serverURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		base:   u,
		http:   http.DefaultClient,
		logger: zerolog.Nop(),
		clock:  quartz.NewReal(),
		poll:   DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()
	return u.String()
}

// get fetches path and returns the raw body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e server.ErrorResponse
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	return data, nil
}

// call performs a request and decodes the JSON response into out.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	data, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

func chatPath(prefix string, chat int64, suffix string) string {
	return prefix + strconv.FormatInt(chat, 10) + suffix
}

func gamePrefix(game session.Game) string { return "/api/" + string(game) }

// Health fetches /health.
func (c *Client) Health(ctx context.Context) (server.Health, error) {
	return call[server.Health](ctx, c, http.MethodGet, "/health", nil)
}

// ListWaiting returns sessions of game waiting for a second player.
func (c *Client) ListWaiting(ctx context.Context, game session.Game) ([]session.Session, error) {
	list, err := call[server.SessionList](ctx, c, http.MethodGet, gamePrefix(game)+"/sessions", nil)
	return list.Sessions, err
}

// Close closes the session of game in chat.
func (c *Client) Close(ctx context.Context, game session.Game, chat int64) (session.Session, error) {
	resp, err := call[server.CloseResponse](ctx, c, http.MethodPost, chatPath(gamePrefix(game)+"/sessions/", chat, "/close"), nil)
	return resp.Session, err
}

// CreateShotgun opens a shotgun session.
func (c *Client) CreateShotgun(ctx context.Context, req server.CreateSessionRequest) (server.ShotgunResponse, error) {
	return call[server.ShotgunResponse](ctx, c, http.MethodPost, "/api/shotgun/sessions", req)
}

// JoinShotgun takes the second seat of the shotgun session in chat.
func (c *Client) JoinShotgun(ctx context.Context, chat, userID int64, name string) (server.ShotgunResponse, error) {
	return call[server.ShotgunResponse](ctx, c, http.MethodPost, chatPath("/api/shotgun/sessions/", chat, "/join"),
		server.JoinSessionRequest{UserID: userID, Username: name})
}

// ShotgunSession fetches the session and match as seen by viewer.
func (c *Client) ShotgunSession(ctx context.Context, chat, viewer int64) (server.ShotgunResponse, error) {
	var out server.ShotgunResponse
	data, err := c.get(ctx, chatPath("/api/shotgun/sessions/", chat, ""), viewerQuery(viewer))
	if err != nil {
		return out, err
	}
	return out, json.Unmarshal(data, &out)
}

// Shoot fires at target on behalf of userID.
func (c *Client) Shoot(ctx context.Context, chat, userID int64, target shotgun.Target) (server.ShotgunResponse, error) {
	return c.shotgunAction(ctx, chat, map[string]any{
		"user_id": userID,
		"action":  server.ActionShoot,
		"target":  target.String(),
	})
}

// UseBonus spends the item at index on behalf of userID.
func (c *Client) UseBonus(ctx context.Context, chat, userID int64, index int) (server.ShotgunResponse, error) {
	return c.shotgunAction(ctx, chat, map[string]any{
		"user_id":     userID,
		"action":      server.ActionUseBonus,
		"bonus_index": index,
	})
}

func (c *Client) shotgunAction(ctx context.Context, chat int64, body map[string]any) (server.ShotgunResponse, error) {
	return call[server.ShotgunResponse](ctx, c, http.MethodPost, chatPath("/api/shotgun/game/", chat, "/update"), body)
}

// CreateCards opens a card session.
func (c *Client) CreateCards(ctx context.Context, req server.CreateSessionRequest) (server.CardsResponse, error) {
	return call[server.CardsResponse](ctx, c, http.MethodPost, "/api/cards/sessions", req)
}

// JoinCards takes the second seat of the card session in chat.
func (c *Client) JoinCards(ctx context.Context, chat, userID int64, name string) (server.CardsResponse, error) {
	return call[server.CardsResponse](ctx, c, http.MethodPost, chatPath("/api/cards/sessions/", chat, "/join"),
		server.JoinSessionRequest{UserID: userID, Username: name})
}

// CardsSession fetches the session and its game.
func (c *Client) CardsSession(ctx context.Context, chat int64) (server.CardsResponse, error) {
	return call[server.CardsResponse](ctx, c, http.MethodGet, chatPath("/api/cards/sessions/", chat, ""), nil)
}

// CardsGame fetches the game alone.
func (c *Client) CardsGame(ctx context.Context, chat int64) (server.CardsResponse, error) {
	return call[server.CardsResponse](ctx, c, http.MethodGet, chatPath("/api/cards/game/", chat, ""), nil)
}

func (c *Client) Hit(ctx context.Context, chat, userID int64) (server.CardsResponse, error) {
	return call[server.CardsResponse](ctx, c, http.MethodPost, userPath("/api/cards/hit/", chat, userID), nil)
}

func (c *Client) Stand(ctx context.Context, chat, userID int64) (server.CardsResponse, error) {
	return call[server.CardsResponse](ctx, c, http.MethodPost, userPath("/api/cards/stand/", chat, userID), nil)
}

func (c *Client) Split(ctx context.Context, chat, userID int64) (server.CardsResponse, error) {
	return call[server.CardsResponse](ctx, c, http.MethodPost, chatPath("/api/cards/game/", chat, "/split"),
		server.PlayerRequest{UserID: userID})
}

func (c *Client) SwitchHand(ctx context.Context, chat, userID int64) (server.CardsResponse, error) {
	return call[server.CardsResponse](ctx, c, http.MethodPost, chatPath("/api/cards/game/", chat, "/switch-hand"),
		server.PlayerRequest{UserID: userID})
}

// Rematch sends verb (request, accept or decline) for userID.
func (c *Client) Rematch(ctx context.Context, verb string, chat, userID int64) (server.RematchResponse, error) {
	return call[server.RematchResponse](ctx, c, http.MethodPost, userPath("/api/cards/rematch/"+verb+"/", chat, userID), nil)
}

func userPath(prefix string, chat, userID int64) string {
	return prefix + strconv.FormatInt(chat, 10) + "/" + strconv.FormatInt(userID, 10)
}

func viewerQuery(viewer int64) url.Values {
	if viewer == 0 {
		return nil
	}
	return url.Values{"user_id": {strconv.FormatInt(viewer, 10)}}
}
