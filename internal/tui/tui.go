// Package tui runs a local hot-seat shotgun match in the terminal. Both
// players share the keyboard; keys always act for the player whose turn it is.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/parlorgames/parlor/internal/shotgun"
)

// DefaultRoundDelay is the pause between a round ending and the reload.
const DefaultRoundDelay = 2 * time.Second

// roundMsg fires when the round delay for round has elapsed.
type roundMsg struct{ round int }

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the debug logger. It must not write to the terminal the
// program draws on.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) { m.logger = logger.WithPrefix("tui") }
}

// WithRoundDelay overrides DefaultRoundDelay.
func WithRoundDelay(d time.Duration) Option {
	return func(m *Model) { m.roundDelay = d }
}

// Model is the Bubble Tea model for a hot-seat match.
type Model struct {
	engine     *shotgun.Engine
	state      shotgun.State
	logger     *log.Logger
	roundDelay time.Duration

	gameLog     []string
	logViewport viewport.Model

	width       int
	height      int
	initialized bool
	quitting    bool
}

// NewModel seats a and b and starts the first round.
func NewModel(engine *shotgun.Engine, a, b shotgun.Seat, opts ...Option) *Model {
	m := &Model{
		engine:      engine,
		logger:      log.New(io.Discard),
		roundDelay:  DefaultRoundDelay,
		logViewport: viewport.New(10, 5),
	}
	for _, opt := range opts {
		opt(m)
	}

	state, _, err := engine.Apply(engine.NewMatch(a, b), shotgun.Begin{})
	if err != nil {
		// A fresh match always accepts Begin.
		panic(err)
	}
	m.state = state
	m.addLog(HeaderStyle.Render(state.LastAction))
	m.addLog(m.chamberLine())
	return m
}

// State returns the current match state.
func (m *Model) State() shotgun.State { return m.state }

// Log returns the game log lines.
func (m *Model) Log() []string { return append([]string(nil), m.gameLog...) }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Resized", "width", m.width, "height", m.height)
		return m, nil

	case roundMsg:
		if m.state.Phase != shotgun.RoundEnd || m.state.Round != msg.round {
			return m, nil
		}
		return m, m.apply(shotgun.StartRound{})

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "s":
			return m, m.apply(shotgun.Shoot{Player: m.state.Current, Target: shotgun.Self})
		case "o":
			return m, m.apply(shotgun.Shoot{Player: m.state.Current, Target: shotgun.Opponent})
		case "1", "2", "3", "4", "5":
			index := int(key[0] - '1')
			return m, m.apply(shotgun.UseBonus{Player: m.state.Current, Index: index})
		}
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// apply runs a through the engine and schedules the next round when the
// chamber empties.
func (m *Model) apply(a shotgun.Action) tea.Cmd {
	if m.state.Phase == shotgun.Finished {
		m.addLog(InfoStyle.Render("The match is over. Press q to quit."))
		return nil
	}

	actor := m.state.CurrentPlayer().Name
	next, notices, err := m.engine.Apply(m.state, a)
	if err != nil {
		m.logger.Debug("Rejected action", "action", fmt.Sprintf("%T", a), "error", err)
		m.addLog(ErrorStyle.Render(strings.TrimPrefix(err.Error(), "shotgun: ")))
		return nil
	}
	m.state = next
	m.logger.Debug("Applied action", "action", fmt.Sprintf("%T", a), "phase", next.Phase)

	for _, n := range notices {
		m.addLog(formatNotice(n, actor))
	}

	switch next.Phase {
	case shotgun.RoundEnd:
		round := next.Round
		return tea.Tick(m.roundDelay, func(time.Time) tea.Msg { return roundMsg{round: round} })
	case shotgun.Playing:
		if _, ok := a.(shotgun.StartRound); ok {
			m.addLog(m.chamberLine())
		}
	}
	return nil
}

// formatNotice renders a notice for the log. Private notices name the
// player they were meant for, since both players share the screen.
func formatNotice(n shotgun.Notice, actor string) string {
	style := InfoStyle
	switch n.Kind {
	case shotgun.NoticeDamage:
		style = ErrorStyle
	case shotgun.NoticeRoundComplete, shotgun.NoticeRoundStarted, shotgun.NoticeMatchOver:
		style = HeaderStyle
	case shotgun.NoticeHealed, shotgun.NoticeNoDamage:
		style = SuccessStyle
	case shotgun.NoticeShellRevealed:
		return WarningStyle.Render(fmt.Sprintf("%s (for %s): %s", n.Title, actor, n.Text))
	}
	return style.Render(n.Title + ": " + n.Text)
}

func (m *Model) chamberLine() string {
	v := m.state.View()
	return fmt.Sprintf("Loaded %d shells: %s live, %s blank",
		v.ShellsLeft, LiveStyle.Render(fmt.Sprint(v.LiveLeft)), BlankStyle.Render(fmt.Sprint(v.BlankLeft)))
}

func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := HeaderStyle.Render(fmt.Sprintf("Round %d/%d", m.state.Round, m.state.MaxRounds)) +
		" " + InfoStyle.Render(m.state.Status())

	players := lipgloss.JoinHorizontal(lipgloss.Top, m.renderPlayer(0), " ", m.renderPlayer(1))
	chamber := m.renderChamber()
	help := m.renderHelp()

	logHeight := m.height - lipgloss.Height(header) - lipgloss.Height(players) - lipgloss.Height(chamber) - lipgloss.Height(help) - 2
	m.logViewport.Width = max(m.width-2, 1)
	m.logViewport.Height = max(logHeight, 1)
	if !m.initialized {
		m.logViewport.GotoBottom()
		m.initialized = true
	}
	logPane := LogStyle.Width(m.logViewport.Width).Height(m.logViewport.Height).Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, players, chamber, logPane, help)
}

func (m *Model) renderPlayer(idx int) string {
	p := m.state.Players[idx]
	var b strings.Builder

	name := p.Name
	if m.state.Phase == shotgun.Playing && m.state.Current == idx {
		name = "▶ " + name
	}
	b.WriteString(ActionsStyle.Render(name))
	b.WriteString("\n")
	b.WriteString(HealthStyle.Render(strings.Repeat("♥", p.Health)))
	b.WriteString(InfoStyle.Render(strings.Repeat("♡", max(shotgun.MaxHealth-p.Health, 0))))
	if p.Handcuffed {
		b.WriteString(WarningStyle.Render(" cuffed"))
	}
	for i, bonus := range p.Bonuses {
		line := fmt.Sprintf("\n%d. %s", i+1, bonus.Kind.Title())
		if bonus.Used {
			b.WriteString(InfoStyle.Strikethrough(true).Render(line))
			continue
		}
		b.WriteString(line)
	}

	style := PlayerStyle
	if m.state.Phase == shotgun.Playing && m.state.Current == idx {
		style = ActivePlayerStyle
	}
	return style.Width(max(m.width/2-3, 20)).Render(b.String())
}

func (m *Model) renderChamber() string {
	v := m.state.View()
	line := fmt.Sprintf("Chamber: %d left (%s live, %s blank)",
		v.ShellsLeft, LiveStyle.Render(fmt.Sprint(v.LiveLeft)), BlankStyle.Render(fmt.Sprint(v.BlankLeft)))
	if v.KnifeActive {
		line += WarningStyle.Render("  knife ready: double damage")
	}
	return line
}

func (m *Model) renderHelp() string {
	if m.state.Phase == shotgun.Finished {
		return InfoStyle.Render("q quit")
	}
	return InfoStyle.Render("s shoot self • o shoot opponent • 1-5 use item • ↑↓ scroll • q quit")
}

// ColorProfile picks the terminal colour profile, or plain ASCII when
// noColor is set or NO_COLOR is present.
func ColorProfile(noColor bool) termenv.Profile {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.NewOutput(os.Stdout).EnvColorProfile()
}

// Run plays m on the terminal until the players quit or ctx is cancelled.
func Run(ctx context.Context, m *Model, profile termenv.Profile) error {
	lipgloss.SetColorProfile(profile)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
