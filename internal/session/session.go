// Package session tracks the chat-scoped lobbies that host matches: who
// created them, who joined, the stake and the lifecycle status.
package session

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Game names the kind of match a session hosts.
type Game string

const (
	Shotgun Game = "shotgun"
	Cards   Game = "cards"
)

// ParseGame validates a game name.
func ParseGame(s string) (Game, error) {
	switch g := Game(strings.ToLower(s)); g {
	case Shotgun, Cards:
		return g, nil
	}
	return "", fmt.Errorf("session: unknown game %q", s)
}

// Mode distinguishes play-money sessions from real-stake ones.
type Mode string

const (
	ModeTest Mode = "test"
	ModeReal Mode = "real"
)

// Default stakes per mode.
const (
	DefaultTestStake = 10.0
	DefaultRealStake = 0.01
)

// DefaultStake returns the stake used when none, or an unusable one, is given.
func (m Mode) DefaultStake() float64 {
	if m == ModeReal {
		return DefaultRealStake
	}
	return DefaultTestStake
}

// ParseMode maps unknown or empty values to ModeTest.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(s)) == ModeReal {
		return ModeReal
	}
	return ModeTest
}

// ParseStake converts a stake from a decoded JSON body. Numbers and numeric
// strings are accepted; anything else, and non-positive values, yield
// fallback.
func ParseStake(raw any, fallback float64) float64 {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return fallback
		}
		v = f
	default:
		return fallback
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}

// Status is the lifecycle stage of a session.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
	StatusClosed   Status = "closed"
)

// Session is one lobby bound to a chat.
type Session struct {
	ChatID       int64     `json:"chat_id"`
	Game         Game      `json:"game"`
	CreatorID    int64     `json:"creator_id"`
	CreatorName  string    `json:"creator_username"`
	Player2ID    int64     `json:"player2_id,omitempty"`
	Player2Name  string    `json:"player2_username,omitempty"`
	Mode         Mode      `json:"game_mode"`
	Stake        float64   `json:"stake"`
	Status       Status    `json:"status"`
	MatchID      string    `json:"match_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
	WinnerID     int64     `json:"winner_id,omitempty"`
	LastActivity time.Time `json:"last_activity"`
}

// IsFull reports whether a second player has joined.
func (s Session) IsFull() bool { return s.Player2ID != 0 }

// IsActive reports whether the session is still waiting or in play.
func (s Session) IsActive() bool {
	return s.Status == StatusWaiting || s.Status == StatusPlaying
}

// CanJoin reports whether userID may take the second seat.
func (s Session) CanJoin(userID int64) bool {
	return !s.IsFull() && s.CreatorID != userID && s.IsActive()
}

// Participant reports whether userID holds one of the two seats.
func (s Session) Participant(userID int64) bool {
	return userID != 0 && (userID == s.CreatorID || userID == s.Player2ID)
}

// Close marks the session closed.
func (s *Session) Close(now time.Time) {
	s.Status = StatusClosed
	s.FinishedAt = now
	s.LastActivity = now
}

// Finish records the outcome. winnerID is zero for a draw or push.
func (s *Session) Finish(now time.Time, winnerID int64) {
	s.Status = StatusFinished
	s.FinishedAt = now
	s.WinnerID = winnerID
	s.LastActivity = now
}

// Touch records activity for idle reaping.
func (s *Session) Touch(now time.Time) { s.LastActivity = now }
