package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/parlorgames/parlor/internal/archive"
	"github.com/parlorgames/parlor/internal/blackjack"
	"github.com/parlorgames/parlor/internal/session"
	"github.com/parlorgames/parlor/internal/shotgun"
)

// registry maps chat IDs to rooms of one game.
type registry[R any] struct {
	mu    sync.RWMutex
	rooms map[int64]R
}

func newRegistry[R any]() *registry[R] {
	return &registry[R]{rooms: make(map[int64]R)}
}

func (r *registry[R]) get(chatID int64) (R, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[chatID]
	return room, ok
}

// put stores room and returns the one it replaced, if any.
func (r *registry[R]) put(chatID int64, room R) (R, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rooms[chatID]
	r.rooms[chatID] = room
	return old, ok
}

func (r *registry[R]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func newMatchID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// shotgunRoom holds the canonical state of one shotgun match.
type shotgunRoom struct {
	mu      sync.Mutex
	key     session.Key
	matchID string
	started time.Time
	state   shotgun.State
	notices []shotgun.Notice
	log     []string
	version uint64
	timer   *quartz.Timer
}

func newShotgunRoom(key session.Key, state shotgun.State, now time.Time) *shotgunRoom {
	return &shotgunRoom{
		key:     key,
		matchID: newMatchID(),
		started: now,
		state:   state,
		version: 1,
	}
}

// apply runs a through the engine and records the result.
func (r *shotgunRoom) apply(e *shotgun.Engine, a shotgun.Action) (shotgun.State, []shotgun.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, notices, err := e.Apply(r.state, a)
	if err != nil {
		return r.state, nil, err
	}
	r.state = next
	r.notices = notices
	r.version++
	if next.LastAction != "" {
		r.log = append(r.log, next.LastAction)
	}
	return next, notices, nil
}

// schedule arms fn to run after d unless a timer is already pending.
func (r *shotgunRoom) schedule(clock quartz.Clock, d time.Duration, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		return false
	}
	r.timer = clock.AfterFunc(d, func() {
		r.mu.Lock()
		r.timer = nil
		r.mu.Unlock()
		fn()
	}, "shotgun", "round")
	return true
}

// stop cancels any pending round transition.
func (r *shotgunRoom) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// seatOf maps a user ID to its seat in the match.
func (r *shotgunRoom) seatOf(id string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.IndexOf(id)
}

func (r *shotgunRoom) capture() shotgunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return shotgunSnapshot{
		version: r.version,
		matchID: r.matchID,
		state:   r.state.Redacted(),
		view:    r.state.View(),
		notices: append([]shotgun.Notice(nil), r.notices...),
	}
}

func (r *shotgunRoom) record(sess session.Session, now time.Time) *archive.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &archive.Record{
		MatchID:    r.matchID,
		Game:       string(session.Shotgun),
		ChatID:     r.key.ChatID,
		Mode:       string(sess.Mode),
		Stake:      sess.Stake,
		Draw:       r.state.Draw,
		Rounds:     r.state.Round,
		StartedAt:  r.started,
		FinishedAt: now,
		Actions:    append([]string(nil), r.log...),
	}
	if w, ok := r.state.WinnerPlayer(); ok {
		rec.WinnerID = w.ID
	}
	for i, p := range r.state.Players {
		rec.Players = append(rec.Players, archive.Player{Seat: i, ID: p.ID, Name: p.Name})
	}
	return rec
}

// shotgunSnapshot is an immutable copy of a room taken under its lock.
type shotgunSnapshot struct {
	version uint64
	matchID string
	state   shotgun.State
	view    shotgun.View
	notices []shotgun.Notice
}

// payload filters notices for viewer. Viewers without a seat see only the
// public ones.
func (s shotgunSnapshot) payload(viewer int64) ShotgunPayload {
	notices := shotgun.Public(s.notices)
	if viewer != 0 {
		if seat, ok := s.state.IndexOf(formatID(viewer)); ok {
			notices = shotgun.Filter(s.notices, seat)
		}
	}
	return ShotgunPayload{
		Type:    string(session.Shotgun),
		Version: s.version,
		MatchID: s.matchID,
		Game:    s.state,
		View:    s.view,
		Notices: notices,
	}
}

func (s shotgunSnapshot) render(viewer int64) ([]byte, error) {
	return json.Marshal(s.payload(viewer))
}

// cardsRoom holds the canonical state of one card game and its rematch
// requests.
type cardsRoom struct {
	mu      sync.Mutex
	key     session.Key
	matchID string
	started time.Time
	state   blackjack.State
	events  []blackjack.Event
	log     []string
	version uint64
	rematch map[int64]bool
}

func newCardsRoom(key session.Key, state blackjack.State, now time.Time) *cardsRoom {
	return &cardsRoom{
		key:     key,
		matchID: newMatchID(),
		started: now,
		state:   state,
		version: 1,
		rematch: make(map[int64]bool),
	}
}

func (r *cardsRoom) apply(e *blackjack.Engine, a blackjack.Action) (blackjack.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, events, err := e.Apply(r.state, a)
	if err != nil {
		return r.state, err
	}
	r.commit(next, events)
	return next, nil
}

func (r *cardsRoom) commit(next blackjack.State, events []blackjack.Event) {
	r.state = next
	r.events = events
	r.version++
	for _, ev := range events {
		if ev.Message != "" {
			r.log = append(r.log, ev.Message)
		}
	}
}

// requestRematch records userID's wish for a rematch. When both players
// have asked and accept is set, a new game replaces the finished one.
func (r *cardsRoom) requestRematch(e *blackjack.Engine, userID int64, accept bool, now time.Time) (started bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Status != blackjack.Finished {
		return false, blackjack.ErrNotFinished
	}
	r.rematch[userID] = true
	r.version++
	if !accept {
		return false, nil
	}
	for _, p := range r.state.Players {
		if !r.rematch[parseID(p.ID)] {
			return false, nil
		}
	}

	next, events, err := e.Rematch(r.state)
	if err != nil {
		return false, err
	}
	r.matchID = newMatchID()
	r.started = now
	r.log = nil
	r.rematch = make(map[int64]bool)
	r.commit(next, events)
	return true, nil
}

func (r *cardsRoom) declineRematch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rematch = make(map[int64]bool)
	r.version++
}

func (r *cardsRoom) seatOf(id string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.IndexOf(id)
}

func (r *cardsRoom) current() (blackjack.State, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.matchID
}

func (r *cardsRoom) capture() cardsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	requests := make([]int64, 0, len(r.rematch))
	for _, p := range r.state.Players {
		if id := parseID(p.ID); r.rematch[id] {
			requests = append(requests, id)
		}
	}
	return cardsSnapshot{
		version:  r.version,
		matchID:  r.matchID,
		view:     r.state.View(),
		events:   append([]blackjack.Event(nil), r.events...),
		requests: requests,
	}
}

func (r *cardsRoom) record(sess session.Session, now time.Time) *archive.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &archive.Record{
		MatchID:    r.matchID,
		Game:       string(session.Cards),
		ChatID:     r.key.ChatID,
		Mode:       string(sess.Mode),
		Stake:      r.state.Stake,
		Draw:       r.state.Push,
		StartedAt:  r.started,
		FinishedAt: now,
		Actions:    append([]string(nil), r.log...),
		Metadata:   map[string]any{"cards_left": int64(len(r.state.Shoe))},
	}
	if w, ok := r.state.WinnerPlayer(); ok {
		rec.WinnerID = w.ID
	}
	for i, p := range r.state.Players {
		rec.Players = append(rec.Players, archive.Player{Seat: i, ID: p.ID, Name: p.Name})
	}
	return rec
}

type cardsSnapshot struct {
	version  uint64
	matchID  string
	view     blackjack.View
	events   []blackjack.Event
	requests []int64
}

func (s cardsSnapshot) payload() CardsPayload {
	return CardsPayload{
		Type:    string(session.Cards),
		Version: s.version,
		MatchID: s.matchID,
		Game:    s.view,
		Events:  s.events,
		Rematch: s.requests,
	}
}

// render ignores viewer: a card game has no private information beyond the
// shoe, which the view never contains.
func (s cardsSnapshot) render(int64) ([]byte, error) {
	return json.Marshal(s.payload())
}
