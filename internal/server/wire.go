package server

import (
	"github.com/parlorgames/parlor/internal/blackjack"
	"github.com/parlorgames/parlor/internal/session"
	"github.com/parlorgames/parlor/internal/shotgun"
)

// CreateSessionRequest opens a session. Stake may be a number or a numeric
// string; anything else falls back to the mode default.
type CreateSessionRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	ChatID   int64  `json:"chat_id"`
	Mode     string `json:"mode,omitempty"`
	Stake    any    `json:"stake,omitempty"`
}

// JoinSessionRequest takes the second seat.
type JoinSessionRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Shotgun action names.
const (
	ActionShoot    = "shoot"
	ActionUseBonus = "use_bonus"
)

// ShotgunActionRequest submits one shotgun action.
type ShotgunActionRequest struct {
	UserID     int64          `json:"user_id"`
	Action     string         `json:"action"`
	Target     shotgun.Target `json:"target"`
	BonusIndex int            `json:"bonus_index"`
}

// PlayerRequest identifies the acting player.
type PlayerRequest struct {
	UserID int64 `json:"user_id"`
}

// ShotgunPayload is the state document for a shotgun match. Game is
// redacted: shells past the cursor are never sent.
type ShotgunPayload struct {
	Type    string           `json:"type"`
	Version uint64           `json:"version"`
	MatchID string           `json:"match_id"`
	Game    shotgun.State    `json:"game"`
	View    shotgun.View     `json:"view"`
	Notices []shotgun.Notice `json:"notices"`
}

// CardsPayload is the state document for a card game.
type CardsPayload struct {
	Type    string            `json:"type"`
	Version uint64            `json:"version"`
	MatchID string            `json:"match_id"`
	Game    blackjack.View    `json:"game"`
	Events  []blackjack.Event `json:"events"`
	Rematch []int64           `json:"rematch_requests"`
}

// ShotgunResponse answers shotgun session and action requests.
type ShotgunResponse struct {
	Success bool             `json:"success"`
	Session *session.Session `json:"session,omitempty"`
	ShotgunPayload
}

// CardsResponse answers card session and action requests.
type CardsResponse struct {
	Success bool             `json:"success"`
	Session *session.Session `json:"session,omitempty"`
	CardsPayload
}

// SessionList answers the waiting-session listings.
type SessionList struct {
	Success  bool              `json:"success"`
	Sessions []session.Session `json:"sessions"`
}

// RematchResponse answers rematch requests. Match is set once a rematch
// has started.
type RematchResponse struct {
	Success bool          `json:"success"`
	Rematch bool          `json:"rematch"`
	Message string        `json:"message"`
	Match   *CardsPayload `json:"match,omitempty"`
}

// CloseResponse answers a close request.
type CloseResponse struct {
	Success bool            `json:"success"`
	Session session.Session `json:"session"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health is the /health document.
type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Rooms    int    `json:"rooms"`
}
