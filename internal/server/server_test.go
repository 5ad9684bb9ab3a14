package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorgames/parlor/internal/archive"
	"github.com/parlorgames/parlor/internal/blackjack"
	"github.com/parlorgames/parlor/internal/config"
	"github.com/parlorgames/parlor/internal/randutil"
	"github.com/parlorgames/parlor/internal/session"
	"github.com/parlorgames/parlor/internal/shotgun"
)

const (
	alice = int64(1)
	bob   = int64(2)
	carol = int64(3)

	shotgunChat = int64(-100)
	cardsChat   = int64(-200)
)

type harness struct {
	t       *testing.T
	cfg     *config.Config
	clock   *quartz.Mock
	srv     *Server
	ts      *httptest.Server
	archive *archive.Archive
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.Default()
	clock := quartz.NewMock(t)
	arch := archive.New(t.TempDir())
	srv, err := New(cfg, zerolog.Nop(),
		WithClock(clock),
		WithRandom(randutil.NewLocked(7)),
		WithArchive(arch),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Hub().Close)

	return &harness{t: t, cfg: cfg, clock: clock, srv: srv, ts: ts, archive: arch}
}

// call sends body as JSON and decodes the response into out when non-nil.
func (h *harness) call(method, path string, body, out any) int {
	h.t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, rdr)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.ts.Client().Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if out != nil {
		require.NoError(h.t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

func (h *harness) errorOf(method, path string, body any) (int, string) {
	h.t.Helper()
	var resp ErrorResponse
	status := h.call(method, path, body, &resp)
	return status, resp.Error
}

func createBody(user int64, name string, chat int64) CreateSessionRequest {
	return CreateSessionRequest{UserID: user, Username: name, ChatID: chat}
}

// startShotgun opens a shotgun session for alice and seats bob.
func (h *harness) startShotgun() ShotgunResponse {
	h.t.Helper()
	var resp ShotgunResponse
	require.Equal(h.t, http.StatusCreated, h.call(http.MethodPost, "/api/shotgun/sessions", createBody(alice, "alice", shotgunChat), &resp))
	require.Equal(h.t, http.StatusOK, h.call(http.MethodPost, "/api/shotgun/sessions/-100/join", JoinSessionRequest{UserID: bob, Username: "bob"}, &resp))
	return resp
}

// rigShotgun rewrites the live match state.
func (h *harness) rigShotgun(fn func(*shotgun.State)) {
	h.t.Helper()
	room, ok := h.srv.shotgunRooms.get(shotgunChat)
	require.True(h.t, ok)
	room.mu.Lock()
	defer room.mu.Unlock()
	next := room.state.Clone()
	fn(&next)
	room.state = next
}

func (h *harness) shoot(user int64, target shotgun.Target) (int, ShotgunResponse) {
	h.t.Helper()
	var resp ShotgunResponse
	status := h.call(http.MethodPost, "/api/shotgun/game/-100/update", map[string]any{
		"user_id": user,
		"action":  ActionShoot,
		"target":  target.String(),
	}, &resp)
	return status, resp
}

// startCards opens a card session for alice, seats bob and stacks the shoe.
func (h *harness) startCards(cards ...string) {
	h.t.Helper()
	require.Equal(h.t, http.StatusCreated, h.call(http.MethodPost, "/api/cards/sessions", createBody(alice, "alice", cardsChat), nil))
	require.Equal(h.t, http.StatusOK, h.call(http.MethodPost, "/api/cards/sessions/-200/join", JoinSessionRequest{UserID: bob, Username: "bob"}, nil))

	room, ok := h.srv.cardsRooms.get(cardsChat)
	require.True(h.t, ok)
	room.mu.Lock()
	defer room.mu.Unlock()
	host := blackjack.Seat{ID: room.state.Players[0].ID, Name: room.state.Players[0].Name}
	guest := blackjack.Seat{ID: room.state.Players[1].ID, Name: room.state.Players[1].Name}
	s := blackjack.NewGameWithShoe(host, room.state.Stake, blackjack.StackedShoe(blackjack.MustParseCards(cards...)...))
	s, _, err := h.srv.cards.Apply(s, blackjack.Join{Seat: guest})
	require.NoError(h.t, err)
	room.state = s
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	var health Health
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Zero(t, health.Sessions)

	h.startShotgun()
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/health", nil, &health))
	assert.Equal(t, 1, health.Sessions)
	assert.Equal(t, 1, health.Rooms)
}

func TestShotgunSessionLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	var created ShotgunResponse
	body := CreateSessionRequest{UserID: alice, Username: "alice", ChatID: shotgunChat, Mode: "real", Stake: "0.5"}
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/shotgun/sessions", body, &created))
	require.NotNil(t, created.Session)
	assert.Equal(t, session.StatusWaiting, created.Session.Status)
	assert.Equal(t, session.ModeReal, created.Session.Mode)
	assert.Equal(t, 0.5, created.Session.Stake)
	assert.Equal(t, shotgun.Waiting, created.Game.Phase)
	assert.NotEmpty(t, created.MatchID)
	assert.Equal(t, created.MatchID, created.Session.MatchID)

	// The creator reopening the form gets the same session back.
	var again ShotgunResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/shotgun/sessions", body, &again))
	assert.Equal(t, created.MatchID, again.MatchID)

	status, _ := h.errorOf(http.MethodPost, "/api/shotgun/sessions", createBody(carol, "carol", shotgunChat))
	assert.Equal(t, http.StatusConflict, status)

	var list SessionList
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/shotgun/sessions", nil, &list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, shotgunChat, list.Sessions[0].ChatID)

	var joined ShotgunResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/shotgun/sessions/-100/join", JoinSessionRequest{UserID: bob, Username: "bob"}, &joined))
	assert.Equal(t, session.StatusPlaying, joined.Session.Status)
	assert.Equal(t, shotgun.Playing, joined.Game.Phase)
	assert.Equal(t, "2", joined.Game.Players[1].ID)

	status, _ = h.errorOf(http.MethodPost, "/api/shotgun/sessions/-100/join", JoinSessionRequest{UserID: carol, Username: "carol"})
	assert.Equal(t, http.StatusConflict, status)

	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/shotgun/sessions", nil, &list))
	assert.Empty(t, list.Sessions)

	var closed CloseResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/shotgun/sessions/-100/close", nil, &closed))
	assert.Equal(t, session.StatusClosed, closed.Session.Status)

	status, _ = h.shoot(alice, shotgun.Opponent)
	assert.Equal(t, http.StatusConflict, status)

	// A closed session can be replaced by anyone.
	var replaced ShotgunResponse
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/shotgun/sessions", createBody(carol, "carol", shotgunChat), &replaced))
	assert.NotEqual(t, created.MatchID, replaced.MatchID)
}

func TestShotgunActionErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.startShotgun()
	h.rigShotgun(func(s *shotgun.State) {
		s.Current = 0
		s.Shells = []shotgun.Shell{shotgun.Live, shotgun.Blank}
	})

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"out of turn", "/api/shotgun/game/-100/update", map[string]any{"user_id": bob, "action": "shoot", "target": "self"}, http.StatusConflict},
		{"not a participant", "/api/shotgun/game/-100/update", map[string]any{"user_id": carol, "action": "shoot", "target": "self"}, http.StatusForbidden},
		{"unknown chat", "/api/shotgun/game/-999/update", map[string]any{"user_id": alice, "action": "shoot", "target": "self"}, http.StatusNotFound},
		{"bad chat id", "/api/shotgun/game/abc/update", map[string]any{"user_id": alice, "action": "shoot", "target": "self"}, http.StatusBadRequest},
		{"shoot without target", "/api/shotgun/game/-100/update", map[string]any{"user_id": alice, "action": "shoot"}, http.StatusBadRequest},
		{"bonus without index", "/api/shotgun/game/-100/update", map[string]any{"user_id": alice, "action": "use_bonus"}, http.StatusBadRequest},
		{"unknown action", "/api/shotgun/game/-100/update", map[string]any{"user_id": alice, "action": "reload"}, http.StatusBadRequest},
		{"missing body", "/api/shotgun/game/-100/update", nil, http.StatusBadRequest},
		{"malformed body", "/api/shotgun/game/-100/update", "{", http.StatusBadRequest},
		{"bonus out of range", "/api/shotgun/game/-100/update", map[string]any{"user_id": alice, "action": "use_bonus", "bonus_index": 99}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := h.errorOf(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, msg)
		})
	}

	// Nothing above changed the match.
	var got ShotgunResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/shotgun/sessions/-100", nil, &got))
	assert.Equal(t, 0, got.Game.Current)
	assert.Equal(t, 0, got.Game.CurrentShell)
	assert.Equal(t, 2, got.View.ShellsLeft)
}

func TestShotgunMagnifyingGlassIsPrivate(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.startShotgun()
	h.rigShotgun(func(s *shotgun.State) {
		s.Current = 0
		s.Shells = []shotgun.Shell{shotgun.Live, shotgun.Blank}
		s.Players[0].Bonuses = []shotgun.Bonus{{Kind: shotgun.MagnifyingGlass}}
	})

	var resp ShotgunResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/shotgun/game/-100/update", map[string]any{
		"user_id":     alice,
		"action":      ActionUseBonus,
		"bonus_index": 0,
	}, &resp))
	require.Len(t, resp.Notices, 1)
	assert.Equal(t, shotgun.NoticeShellRevealed, resp.Notices[0].Kind)
	assert.Equal(t, "Current shell is: live", resp.Notices[0].Text)
	assert.Equal(t, "alice inspected the chamber", resp.Game.LastAction)
	assert.Empty(t, resp.Game.Shells, "unfired shells are never sent")
	assert.Equal(t, 1, resp.View.LiveLeft)

	for _, path := range []string{"/api/shotgun/sessions/-100?user_id=2", "/api/shotgun/sessions/-100"} {
		var other ShotgunResponse
		require.Equal(t, http.StatusOK, h.call(http.MethodGet, path, nil, &other))
		assert.Empty(t, other.Notices, path)
		assert.Equal(t, resp.Version, other.Version)
	}
}

func TestShotgunRoundDelay(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.startShotgun()
	h.rigShotgun(func(s *shotgun.State) {
		s.Current = 0
		s.Shells = []shotgun.Shell{shotgun.Blank}
	})

	status, resp := h.shoot(alice, shotgun.Opponent)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, shotgun.RoundEnd, resp.Game.Phase)
	assert.Equal(t, 1, resp.Game.Round)

	// Still between rounds until the delay elapses.
	status, _ = h.shoot(alice, shotgun.Opponent)
	assert.Equal(t, http.StatusConflict, status)

	h.clock.Advance(h.cfg.RoundDelay).MustWait(waitCtx(t))

	require.Eventually(t, func() bool {
		var got ShotgunResponse
		h.call(http.MethodGet, "/api/shotgun/sessions/-100", nil, &got)
		return got.Game.Phase == shotgun.Playing && got.Game.Round == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestShotgunCloseCancelsRoundTimer(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.startShotgun()
	h.rigShotgun(func(s *shotgun.State) {
		s.Current = 0
		s.Shells = []shotgun.Shell{shotgun.Blank}
	})

	status, _ := h.shoot(alice, shotgun.Self)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/shotgun/sessions/-100/close", nil, nil))

	room, ok := h.srv.shotgunRooms.get(shotgunChat)
	require.True(t, ok)
	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Nil(t, room.timer)
	assert.Equal(t, shotgun.RoundEnd, room.state.Phase)
}

func TestShotgunFinishArchivesMatch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.startShotgun()
	h.rigShotgun(func(s *shotgun.State) {
		s.Current = 0
		s.Shells = []shotgun.Shell{shotgun.Live, shotgun.Live}
		s.Players[1].Health = 1
	})

	status, resp := h.shoot(alice, shotgun.Opponent)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, shotgun.Finished, resp.Game.Phase)
	assert.Equal(t, 0, resp.Game.Winner)
	require.NotNil(t, resp.Session)
	assert.Equal(t, session.StatusFinished, resp.Session.Status)
	assert.Equal(t, alice, resp.Session.WinnerID)

	status, _ = h.shoot(bob, shotgun.Opponent)
	assert.Equal(t, http.StatusConflict, status)

	paths, err := h.archive.List(string(session.Shotgun))
	require.NoError(t, err)
	require.Len(t, paths, 1)
	rec, err := archive.Load(paths[0])
	require.NoError(t, err)
	assert.Equal(t, resp.MatchID, rec.MatchID)
	assert.Equal(t, "1", rec.WinnerID)
	assert.Equal(t, shotgunChat, rec.ChatID)
	require.Len(t, rec.Players, 2)
	assert.Equal(t, "bob", rec.Players[1].Name)
	assert.Contains(t, rec.Actions, "bob took 1 damage (live)")
}

func TestStreamPushesSnapshots(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.startShotgun()
	h.rigShotgun(func(s *shotgun.State) {
		s.Current = 0
		s.Shells = []shotgun.Shell{shotgun.Blank, shotgun.Live}
		s.Players[0].Bonuses = []shotgun.Bonus{{Kind: shotgun.MagnifyingGlass}}
	})

	base := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws/shotgun/-100"
	dial := func(query string) *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(base+query, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}
	read := func(conn *websocket.Conn) ShotgunPayload {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var p ShotgunPayload
		require.NoError(t, conn.ReadJSON(&p))
		return p
	}

	player := dial("?user_id=1")
	spectator := dial("")
	first := read(player)
	read(spectator)
	assert.Equal(t, shotgun.Playing, first.Game.Phase)

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/shotgun/game/-100/update", map[string]any{
		"user_id":     alice,
		"action":      ActionUseBonus,
		"bonus_index": 0,
	}, nil))

	mine := read(player)
	assert.Greater(t, mine.Version, first.Version)
	require.Len(t, mine.Notices, 1)
	assert.Equal(t, "Current shell is: blank", mine.Notices[0].Text)

	theirs := read(spectator)
	assert.Equal(t, mine.Version, theirs.Version)
	assert.Empty(t, theirs.Notices)

	assert.Equal(t, 2, h.srv.Hub().Count(session.Key{Game: session.Shotgun, ChatID: shotgunChat}))
}

func TestStreamKeepalivePings(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/shotgun/sessions", createBody(alice, "alice", shotgunChat), nil))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(h.ts.URL, "http")+"/ws/shotgun/-100", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	pings := make(chan struct{}, 8)
	conn.SetPingHandler(func(data string) error {
		pings <- struct{}{}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-pings:
		t.Fatal("ping sent before the clock moved")
	case <-time.After(50 * time.Millisecond):
	}

	ctx := waitCtx(t)
	require.Eventually(t, func() bool {
		select {
		case <-pings:
			return true
		default:
		}
		h.clock.Advance(pingPeriod).MustWait(ctx)
		return false
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStreamUnknownGame(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	status, _ := h.errorOf(http.MethodGet, "/ws/shotgun/-100", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = h.errorOf(http.MethodGet, "/ws/poker/-100", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCardsGameFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.startCards("10♠", "9♥", "Q♦")

	status, _ := h.errorOf(http.MethodPost, "/api/cards/hit/-200/2", nil)
	assert.Equal(t, http.StatusConflict, status, "bob acts out of turn")
	status, _ = h.errorOf(http.MethodPost, "/api/cards/hit/-200/3", nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.errorOf(http.MethodPost, "/api/cards/game/-200/split", PlayerRequest{UserID: alice})
	assert.Equal(t, http.StatusConflict, status, "no pair to split")
	status, _ = h.errorOf(http.MethodPost, "/api/cards/game/-200/switch-hand", PlayerRequest{UserID: alice})
	assert.Equal(t, http.StatusConflict, status, "no split hand")

	var resp CardsResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/hit/-200/1", nil, &resp))
	assert.Equal(t, 20, resp.Game.Players[0].Score)
	assert.Equal(t, "2", resp.Game.TurnID)

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/stand/-200/2", nil, &resp))
	assert.Equal(t, "1", resp.Game.TurnID)

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/stand/-200/1", nil, &resp))
	assert.Equal(t, blackjack.Finished, resp.Game.Status)
	assert.Equal(t, "1", resp.Game.WinnerID)
	assert.Equal(t, session.StatusFinished, resp.Session.Status)
	assert.Equal(t, alice, resp.Session.WinnerID)

	var game CardsResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/cards/game/-200", nil, &game))
	assert.Nil(t, game.Session)
	assert.Equal(t, resp.Version, game.Version)

	paths, err := h.archive.List(string(session.Cards))
	require.NoError(t, err)
	require.Len(t, paths, 1)
	rec, err := archive.Load(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "1", rec.WinnerID)
	assert.Equal(t, 10.0, rec.Stake)
}

func TestCardsSplitFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	// Alice opens with an 8, bob with a 5; alice's hit brings the pair.
	h.startCards("8♠", "5♥", "8♦", "4♣", "3♠", "2♥")

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/hit/-200/1", nil, nil))
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/stand/-200/2", nil, nil))

	var resp CardsResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/game/-200/split", PlayerRequest{UserID: alice}, &resp))
	require.Len(t, resp.Game.Players[0].Hands, 2)
	assert.Equal(t, 0, resp.Game.Players[0].ActiveHand)

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/game/-200/switch-hand", PlayerRequest{UserID: alice}, &resp))
	assert.Equal(t, 1, resp.Game.Players[0].ActiveHand)

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/stand/-200/1", nil, &resp))
	assert.Equal(t, blackjack.Finished, resp.Game.Status)
	assert.Equal(t, "1", resp.Game.WinnerID)
}

func TestCardsRematch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.startCards("10♠", "9♥")

	status, _ := h.errorOf(http.MethodPost, "/api/cards/rematch/request/-200/1", nil)
	assert.Equal(t, http.StatusConflict, status, "game still running")

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/stand/-200/1", nil, nil))
	var first CardsResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/stand/-200/2", nil, &first))
	require.Equal(t, blackjack.Finished, first.Game.Status)

	status, _ = h.errorOf(http.MethodPost, "/api/cards/rematch/request/-200/3", nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = h.errorOf(http.MethodPost, "/api/cards/rematch/insist/-200/1", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var rr RematchResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/rematch/request/-200/1", nil, &rr))
	assert.False(t, rr.Rematch)

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/rematch/decline/-200/2", nil, &rr))
	assert.False(t, rr.Rematch)
	var game CardsResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/cards/game/-200", nil, &game))
	assert.Empty(t, game.Rematch)

	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/rematch/request/-200/1", nil, &rr))
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/api/cards/rematch/accept/-200/2", nil, &rr))
	assert.True(t, rr.Rematch)
	require.NotNil(t, rr.Match)
	assert.Equal(t, blackjack.Playing, rr.Match.Game.Status)
	assert.NotEqual(t, first.MatchID, rr.Match.MatchID)

	var sess CardsResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, "/api/cards/sessions/-200", nil, &sess))
	assert.Equal(t, session.StatusPlaying, sess.Session.Status)
	assert.Equal(t, rr.Match.MatchID, sess.Session.MatchID)
	assert.Zero(t, sess.Session.WinnerID)
}

func TestReapIdleSessions(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.startShotgun()
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, "/api/cards/sessions", createBody(carol, "carol", cardsChat), nil))

	assert.Zero(t, h.srv.reapIdle())

	h.clock.Advance(h.cfg.IdleTTL + time.Minute).MustWait(waitCtx(t))
	assert.Equal(t, 2, h.srv.reapIdle())

	sess, ok := h.srv.Store().Get(session.Key{Game: session.Shotgun, ChatID: shotgunChat})
	require.True(t, ok)
	assert.Equal(t, session.StatusClosed, sess.Status)
	assert.Zero(t, h.srv.reapIdle())
}

func TestReapLoopStopsOnCancel(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, h.srv.reapLoop(ctx))
}
