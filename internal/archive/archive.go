// Package archive persists finished matches as TOML records, one file per
// match under <dir>/<game>/<match-id>.toml.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/parlorgames/parlor/internal/fileutil"
)

// Player is a participant as recorded in the archive.
type Player struct {
	Seat int    `toml:"seat"`
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// Record is the archived summary of one finished match.
type Record struct {
	MatchID    string         `toml:"match_id"`
	Game       string         `toml:"game"`
	ChatID     int64          `toml:"chat_id"`
	Mode       string         `toml:"mode,omitempty"`
	Stake      float64        `toml:"stake"`
	WinnerID   string         `toml:"winner_id,omitempty"`
	Draw       bool           `toml:"draw"`
	Rounds     int            `toml:"rounds,omitempty"`
	StartedAt  time.Time      `toml:"started_at"`
	FinishedAt time.Time      `toml:"finished_at"`
	Actions    []string       `toml:"actions"`
	Metadata   map[string]any `toml:"metadata,omitempty"`
	Players    []Player       `toml:"players"`
}

// Winner returns the winning player, if any.
func (r *Record) Winner() (Player, bool) {
	if r.Draw || r.WinnerID == "" {
		return Player{}, false
	}
	for _, p := range r.Players {
		if p.ID == r.WinnerID {
			return p, true
		}
	}
	return Player{}, false
}

// Summary renders a short human-readable description.
func (r *Record) Summary() string {
	names := make([]string, len(r.Players))
	for i, p := range r.Players {
		names[i] = p.Name
	}
	outcome := "draw"
	if w, ok := r.Winner(); ok {
		outcome = w.Name + " won"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s match %s in chat %d: %s, %s", r.Game, r.MatchID, r.ChatID, strings.Join(names, " vs "), outcome)
	if r.Rounds > 0 {
		fmt.Fprintf(&b, " after %d rounds", r.Rounds)
	}
	fmt.Fprintf(&b, " (%s)", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	return b.String()
}

func (r *Record) validate() error {
	if r == nil {
		return fmt.Errorf("archive: record is nil")
	}
	if r.MatchID == "" || strings.ContainsAny(r.MatchID, `/\.`) {
		return fmt.Errorf("archive: invalid match id %q", r.MatchID)
	}
	if r.Game == "" || strings.ContainsAny(r.Game, `/\.`) {
		return fmt.Errorf("archive: invalid game %q", r.Game)
	}
	return nil
}

// Encode writes rec as TOML.
func Encode(w io.Writer, rec *Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(rec)
}

// Decode reads a record and rejects keys it does not know.
func Decode(r io.Reader) (*Record, error) {
	var rec Record
	md, err := toml.NewDecoder(r).Decode(&rec)
	if err != nil {
		return nil, fmt.Errorf("archive: decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("archive: unknown keys %v", undecoded)
	}
	return &rec, nil
}

// Load reads the record stored at path.
func Load(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Archive writes records under a root directory.
type Archive struct {
	dir string
}

// New returns an archive rooted at dir.
func New(dir string) *Archive {
	return &Archive{dir: dir}
}

// Dir returns the root directory.
func (a *Archive) Dir() string { return a.dir }

// Path returns where the record for game and matchID lives.
func (a *Archive) Path(game, matchID string) string {
	return filepath.Join(a.dir, game, matchID+".toml")
}

// Write stores rec atomically and returns its path.
func (a *Archive) Write(rec *Record) (string, error) {
	if err := rec.validate(); err != nil {
		return "", err
	}
	path := a.Path(rec.Game, rec.MatchID)
	err := fileutil.WriteFileAtomicFunc(path, 0o644, func(w io.Writer) error {
		return Encode(w, rec)
	})
	if err != nil {
		return "", fmt.Errorf("archive: write %s: %w", path, err)
	}
	return path, nil
}

// List returns the record paths stored for game, sorted by name.
func (a *Archive) List(game string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(a.dir, game, "*.toml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
