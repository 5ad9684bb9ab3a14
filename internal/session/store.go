package session

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrExists      = errors.New("session already exists for this chat")
	ErrCannotJoin  = errors.New("cannot join this session")
	ErrMissingData = errors.New("missing required data")
)

// Key addresses a session. Each game keeps its own session per chat.
type Key struct {
	Game   Game
	ChatID int64
}

// CreateRequest carries the fields needed to open a session.
type CreateRequest struct {
	Game        Game
	ChatID      int64
	CreatorID   int64
	CreatorName string
	Mode        Mode
	Stake       float64
}

// Store keeps sessions in memory. Values are copied in and out so callers
// never share a Session with another goroutine.
type Store struct {
	mu       sync.RWMutex
	sessions map[Key]*Session
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[Key]*Session)}
}

// Create opens a session. If the creator already has a waiting session for
// the chat it is returned with created=false. Another active session is
// ErrExists; finished and closed sessions are replaced.
func (st *Store) Create(req CreateRequest, now time.Time) (s Session, created bool, err error) {
	if req.ChatID == 0 || req.CreatorID == 0 || req.CreatorName == "" || req.Game == "" {
		return Session{}, false, ErrMissingData
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	key := Key{Game: req.Game, ChatID: req.ChatID}
	if existing, ok := st.sessions[key]; ok {
		switch {
		case existing.Status == StatusWaiting && existing.CreatorID == req.CreatorID:
			return *existing, false, nil
		case existing.IsActive():
			return Session{}, false, ErrExists
		}
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeTest
	}
	stake := req.Stake
	if stake <= 0 {
		stake = mode.DefaultStake()
	}
	sess := &Session{
		ChatID:       req.ChatID,
		Game:         req.Game,
		CreatorID:    req.CreatorID,
		CreatorName:  req.CreatorName,
		Mode:         mode,
		Stake:        stake,
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
	}
	st.sessions[key] = sess
	return *sess, true, nil
}

// Get returns a copy of the session.
func (st *Store) Get(key Key) (Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[key]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Join seats userID as the second player and moves the session to playing.
func (st *Store) Join(key Key, userID int64, name string, now time.Time) (Session, error) {
	if userID == 0 || name == "" {
		return Session{}, ErrMissingData
	}
	return st.Update(key, func(s *Session) error {
		if !s.CanJoin(userID) {
			return ErrCannotJoin
		}
		s.Player2ID = userID
		s.Player2Name = name
		s.Status = StatusPlaying
		s.Touch(now)
		return nil
	})
}

// Update applies fn to the stored session under the write lock. If fn
// returns an error the session is left unchanged.
func (st *Store) Update(key Key, fn func(*Session) error) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[key]
	if !ok {
		return Session{}, ErrNotFound
	}
	draft := *s
	if err := fn(&draft); err != nil {
		return *s, err
	}
	*s = draft
	return draft, nil
}

// Delete removes a session.
func (st *Store) Delete(key Key) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[key]; !ok {
		return false
	}
	delete(st.sessions, key)
	return true
}

// ListWaiting returns the sessions of game that are waiting for a second
// player, oldest first.
func (st *Store) ListWaiting(game Game) []Session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]Session, 0)
	for key, s := range st.sessions {
		if key.Game == game && s.Status == StatusWaiting {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ChatID < out[j].ChatID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Idle returns the keys of active sessions with no activity since before.
func (st *Store) Idle(before time.Time) []Key {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var keys []Key
	for key, s := range st.sessions {
		if s.IsActive() && s.LastActivity.Before(before) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
