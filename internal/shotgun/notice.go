package shotgun

// NoticeKind classifies a notification for the presentation layer.
type NoticeKind string

const (
	NoticeShellRevealed NoticeKind = "shell_revealed"
	NoticeShellEjected  NoticeKind = "shell_ejected"
	NoticeHandcuffed    NoticeKind = "handcuffed"
	NoticeHealed        NoticeKind = "healed"
	NoticeKnifeReady    NoticeKind = "knife_ready"
	NoticeDamage        NoticeKind = "damage"
	NoticeNoDamage      NoticeKind = "no_damage"
	NoticeTurnSkipped   NoticeKind = "turn_skipped"
	NoticeRoundComplete NoticeKind = "round_complete"
	NoticeRoundStarted  NoticeKind = "round_started"
	NoticeMatchOver     NoticeKind = "match_over"
	NoticePlayerJoined  NoticeKind = "player_joined"
)

// AudienceAll addresses a notice to both players.
const AudienceAll = -1

// Notice is a toast-style message produced by a transition. The engine never
// renders or delivers it.
type Notice struct {
	Kind     NoticeKind `json:"kind"`
	Audience int        `json:"audience"`
	Title    string     `json:"title"`
	Text     string     `json:"text"`
}

// VisibleTo reports whether the given player may see the notice.
func (n Notice) VisibleTo(player int) bool {
	return n.Audience == AudienceAll || n.Audience == player
}

// Filter returns the notices visible to player.
func Filter(notices []Notice, player int) []Notice {
	out := make([]Notice, 0, len(notices))
	for _, n := range notices {
		if n.VisibleTo(player) {
			out = append(out, n)
		}
	}
	return out
}

// Public returns the notices addressed to everyone.
func Public(notices []Notice) []Notice {
	return Filter(notices, AudienceAll)
}
