package tui

import (
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorgames/parlor/internal/randutil"
	"github.com/parlorgames/parlor/internal/shotgun"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	engine := shotgun.New(randutil.New(5))
	m := NewModel(engine,
		shotgun.Seat{ID: "a", Name: "alice"},
		shotgun.Seat{ID: "b", Name: "bob"},
		WithLogger(logger),
		WithRoundDelay(time.Millisecond),
	)
	return m
}

// rig replaces the chamber and alice's items.
func rig(m *Model, shells []shotgun.Shell, bonuses ...shotgun.BonusKind) {
	m.state.Shells = shells
	m.state.CurrentShell = 0
	m.state.Current = 0
	m.state.Players[0].Bonuses = nil
	for _, k := range bonuses {
		m.state.Players[0].Bonuses = append(m.state.Players[0].Bonuses, shotgun.Bonus{Kind: k})
	}
}

func press(m *Model, key string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return cmd
}

func lastLog(m *Model) string {
	lines := m.Log()
	return lines[len(lines)-1]
}

func TestNewModelStartsFirstRound(t *testing.T) {
	t.Parallel()
	m := newTestModel(t)

	assert.Equal(t, shotgun.Playing, m.State().Phase)
	assert.Equal(t, 1, m.State().Round)
	require.Len(t, m.Log(), 2)
	assert.Contains(t, m.Log()[0], "Round 1 started")
	assert.Contains(t, m.Log()[1], "Loaded")
	assert.Nil(t, m.Init())
}

func TestShootKeys(t *testing.T) {
	t.Parallel()

	t.Run("blank at self keeps the turn", func(t *testing.T) {
		m := newTestModel(t)
		rig(m, []shotgun.Shell{shotgun.Blank, shotgun.Live, shotgun.Live})

		assert.Nil(t, press(m, "s"))
		assert.Equal(t, 0, m.State().Current)
		assert.Contains(t, lastLog(m), "no damage")
	})

	t.Run("live at opponent passes the turn", func(t *testing.T) {
		m := newTestModel(t)
		rig(m, []shotgun.Shell{shotgun.Live, shotgun.Live, shotgun.Blank})

		assert.Nil(t, press(m, "o"))
		assert.Equal(t, shotgun.MaxHealth-1, m.State().Players[1].Health)
		assert.Equal(t, 1, m.State().Current)
		assert.Contains(t, lastLog(m), "bob took 1 damage")
	})
}

func TestBonusKeys(t *testing.T) {
	t.Parallel()
	m := newTestModel(t)
	rig(m, []shotgun.Shell{shotgun.Live, shotgun.Blank}, shotgun.MagnifyingGlass, shotgun.Knife)

	press(m, "1")
	assert.True(t, m.State().Players[0].Bonuses[0].Used)
	assert.Contains(t, lastLog(m), "Shell Revealed (for alice): Current shell is: live")

	press(m, "2")
	assert.True(t, m.State().KnifeActive)

	// Slot 5 is empty: the engine rejects it and nothing changes.
	before := m.State()
	press(m, "5")
	assert.Equal(t, before, m.State())
	assert.Contains(t, lastLog(m), "no such bonus")

	press(m, "o")
	assert.Equal(t, shotgun.MaxHealth-2, m.State().Players[1].Health)
}

func TestRoundEndSchedulesReload(t *testing.T) {
	t.Parallel()
	m := newTestModel(t)
	rig(m, []shotgun.Shell{shotgun.Blank})

	cmd := press(m, "o")
	require.NotNil(t, cmd)
	assert.Equal(t, shotgun.RoundEnd, m.State().Phase)

	// Keys are refused between rounds.
	assert.Nil(t, press(m, "s"))
	assert.Equal(t, shotgun.RoundEnd, m.State().Phase)

	msg := cmd()
	require.IsType(t, roundMsg{}, msg)
	m.Update(msg)
	assert.Equal(t, shotgun.Playing, m.State().Phase)
	assert.Equal(t, 2, m.State().Round)
	assert.Contains(t, lastLog(m), "Loaded")

	// A stale tick is ignored.
	m.Update(msg)
	assert.Equal(t, 2, m.State().Round)
}

func TestFinishedMatchIgnoresMoves(t *testing.T) {
	t.Parallel()
	m := newTestModel(t)
	rig(m, []shotgun.Shell{shotgun.Live, shotgun.Live})
	m.state.Players[1].Health = 1

	press(m, "o")
	require.Equal(t, shotgun.Finished, m.State().Phase)
	assert.Contains(t, lastLog(m), "alice WINS!")

	press(m, "s")
	assert.Contains(t, lastLog(m), "The match is over")
}

func TestQuit(t *testing.T) {
	t.Parallel()
	m := newTestModel(t)

	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestView(t *testing.T) {
	t.Parallel()
	m := newTestModel(t)
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	for _, want := range []string{"alice", "bob", "Round 1/5", "Chamber:", "s shoot self"} {
		assert.True(t, strings.Contains(view, want), "view missing %q", want)
	}
}
