package shotgun

import (
	"fmt"

	"github.com/parlorgames/parlor/internal/randutil"
)

// Action is one of Begin, Join, UseBonus, Shoot or StartRound.
type Action interface {
	shotgunAction()
}

// Begin moves a locally created match from Setup to Playing.
type Begin struct{}

// Join seats the second player of a networked match.
type Join struct {
	Seat Seat
}

// UseBonus consumes the item at Index in Player's inventory.
type UseBonus struct {
	Player int
	Index  int
}

// Shoot fires the next shell at Target.
type Shoot struct {
	Player int
	Target Target
}

// StartRound reloads the chamber after RoundEnd.
type StartRound struct{}

func (Begin) shotgunAction()      {}
func (Join) shotgunAction()       {}
func (UseBonus) shotgunAction()   {}
func (Shoot) shotgunAction()      {}
func (StartRound) shotgunAction() {}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxRounds overrides DefaultMaxRounds.
func WithMaxRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRounds = n
		}
	}
}

// Engine owns the random source and match settings. It holds no match state.
type Engine struct {
	rng       randutil.Source
	maxRounds int
}

// New returns an engine drawing from rng. The source is required so every
// match is reproducible from its seed.
func New(rng randutil.Source, opts ...Option) *Engine {
	if rng == nil {
		panic("shotgun: rng is required")
	}
	e := &Engine{rng: rng, maxRounds: DefaultMaxRounds}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxRounds returns the configured match length.
func (e *Engine) MaxRounds() int { return e.maxRounds }

// NewMatch creates a local match with both seats filled, in Setup.
func (e *Engine) NewMatch(a, b Seat) State {
	s := e.freshMatch(a)
	s.Players[1] = e.newPlayer(b)
	s.Phase = Setup
	return s
}

// NewPendingMatch creates a networked match waiting for its second player.
// The empty seat already holds its round one inventory.
func (e *Engine) NewPendingMatch(host Seat) State {
	s := e.freshMatch(host)
	s.Players[1] = e.newPlayer(Seat{Name: "Waiting for player..."})
	s.Phase = Waiting
	return s
}

func (e *Engine) freshMatch(host Seat) State {
	return State{
		Players:   [2]Player{e.newPlayer(host)},
		Shells:    GenerateShells(e.rng, 1),
		Round:     1,
		MaxRounds: e.maxRounds,
		Winner:    NoWinner,
	}
}

func (e *Engine) newPlayer(seat Seat) Player {
	return Player{
		ID:      seat.ID,
		Name:    seat.Name,
		Health:  MaxHealth,
		Bonuses: GenerateBonuses(e.rng, 1),
	}
}

// Apply performs a on s. On error the returned state is s unchanged.
func (e *Engine) Apply(s State, a Action) (State, []Notice, error) {
	var (
		next    State
		notices []Notice
		err     error
	)
	switch a := a.(type) {
	case Begin:
		next, notices, err = e.begin(s)
	case Join:
		next, notices, err = e.join(s, a)
	case UseBonus:
		next, notices, err = e.useBonus(s, a)
	case Shoot:
		next, notices, err = e.shoot(s, a)
	case StartRound:
		next, notices, err = e.startRound(s)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	if err != nil {
		return s, nil, err
	}
	return next, notices, nil
}

func (e *Engine) begin(s State) (State, []Notice, error) {
	if s.Phase != Setup {
		return s, nil, ErrWrongPhase
	}
	next := s.Clone()
	next.Phase = Playing
	next.LastAction = fmt.Sprintf("Round %d started", next.Round)
	return next, nil, nil
}

func (e *Engine) join(s State, a Join) (State, []Notice, error) {
	if s.Phase != Waiting {
		return s, nil, ErrWrongPhase
	}
	if a.Seat.ID == "" || a.Seat.ID == s.Players[0].ID {
		return s, nil, ErrSeatTaken
	}
	next := s.Clone()
	p := &next.Players[1]
	p.ID = a.Seat.ID
	p.Name = a.Seat.Name
	p.Health = MaxHealth
	p.Handcuffed = false
	next.Phase = Playing
	next.LastAction = fmt.Sprintf("%s joined the game!", p.Name)
	return next, []Notice{{
		Kind:     NoticePlayerJoined,
		Audience: AudienceAll,
		Title:    "Player joined",
		Text:     next.LastAction,
	}}, nil
}

func (e *Engine) checkTurn(s State, player int) error {
	if s.Phase != Playing {
		return ErrWrongPhase
	}
	if player < 0 || player > 1 {
		return ErrNoSuchPlayer
	}
	if player != s.Current {
		return ErrNotYourTurn
	}
	return nil
}

func (e *Engine) useBonus(s State, a UseBonus) (State, []Notice, error) {
	if err := e.checkTurn(s, a.Player); err != nil {
		return s, nil, err
	}
	bonuses := s.Players[a.Player].Bonuses
	if a.Index < 0 || a.Index >= len(bonuses) {
		return s, nil, ErrNoSuchBonus
	}
	if bonuses[a.Index].Used {
		return s, nil, ErrBonusUsed
	}

	next := s.Clone()
	notices := applyBonus(&next, a.Player, bonuses[a.Index].Kind)
	next.Players[a.Player].Bonuses[a.Index].Used = true
	return next, notices, nil
}

// applyBonus mutates s with the effect of kind used by actor.
func applyBonus(s *State, actor int, kind BonusKind) []Notice {
	player := &s.Players[actor]
	opponent := &s.Players[OpponentOf(actor)]

	switch kind {
	case MagnifyingGlass:
		shell, ok := s.NextShell()
		text := "The chamber is empty"
		if ok {
			text = fmt.Sprintf("Current shell is: %s", shell)
		}
		// Only the actor learns the shell; LastAction stays public.
		s.LastAction = fmt.Sprintf("%s inspected the chamber", player.Name)
		return []Notice{{Kind: NoticeShellRevealed, Audience: actor, Title: "Shell Revealed", Text: text}}

	case Beer:
		shell, ok := s.NextShell()
		if !ok {
			// Consumed without effect.
			s.LastAction = fmt.Sprintf("%s drank a beer, nothing to eject", player.Name)
			return nil
		}
		s.CurrentShell++
		s.LastAction = fmt.Sprintf("Ejected %s shell", shell)
		return []Notice{{Kind: NoticeShellEjected, Audience: AudienceAll, Title: "Shell Ejected", Text: fmt.Sprintf("Ejected a %s shell", shell)}}

	case Handcuffs:
		opponent.Handcuffed = true
		s.LastAction = fmt.Sprintf("%s handcuffed", opponent.Name)
		return []Notice{{Kind: NoticeHandcuffed, Audience: AudienceAll, Title: "Handcuffs Applied", Text: fmt.Sprintf("%s will skip their next turn", opponent.Name)}}

	case Cigarettes:
		if player.Health >= MaxHealth {
			s.LastAction = fmt.Sprintf("%s smoked at full health", player.Name)
			return nil
		}
		player.Health++
		s.LastAction = fmt.Sprintf("%s healed 1 HP", player.Name)
		return []Notice{{Kind: NoticeHealed, Audience: AudienceAll, Title: "Health Restored", Text: fmt.Sprintf("%s gained 1 health", player.Name)}}

	case Knife:
		s.KnifeActive = true
		s.LastAction = fmt.Sprintf("%s sharpened the knife", player.Name)
		return []Notice{{Kind: NoticeKnifeReady, Audience: AudienceAll, Title: "Knife Ready", Text: "Next shot will deal double damage"}}

	default:
		panic(fmt.Sprintf("shotgun: unhandled bonus kind %d", kind))
	}
}

func (e *Engine) shoot(s State, a Shoot) (State, []Notice, error) {
	if err := e.checkTurn(s, a.Player); err != nil {
		return s, nil, err
	}
	if !a.Target.Valid() {
		return s, nil, ErrNoSuchTarget
	}

	next := s.Clone()
	shell, ok := next.NextShell()
	if !ok {
		return next, exhaust(&next), nil
	}

	shooter := next.Current
	targetIdx := shooter
	if a.Target == Opponent {
		targetIdx = OpponentOf(shooter)
	}
	target := &next.Players[targetIdx]

	damage := 0
	if shell == Live {
		damage = 1
		if next.KnifeActive {
			damage = 2
		}
	}

	var notices []Notice
	if damage > 0 {
		target.Health = max(0, target.Health-damage)
		next.LastAction = fmt.Sprintf("%s took %d damage (%s)", target.Name, damage, shell)
		notices = append(notices, Notice{Kind: NoticeDamage, Audience: AudienceAll, Title: "Hit!", Text: next.LastAction})
	} else {
		next.LastAction = fmt.Sprintf("%s shell - no damage", shell)
		notices = append(notices, Notice{Kind: NoticeNoDamage, Audience: AudienceAll, Title: "Click", Text: next.LastAction})
	}

	next.CurrentShell++
	next.KnifeActive = false

	if !target.Alive() {
		next.Phase = Finished
		next.Winner = OpponentOf(targetIdx)
		next.Draw = false
		return next, append(notices, matchOverNotice(next)), nil
	}

	if next.ShellsLeft() == 0 {
		return next, append(notices, exhaust(&next)...), nil
	}

	if a.Target == Self && shell == Blank {
		return next, notices, nil
	}

	receiver := OpponentOf(shooter)
	if next.Players[receiver].Handcuffed {
		next.Players[receiver].Handcuffed = false
		notices = append(notices, Notice{
			Kind:     NoticeTurnSkipped,
			Audience: AudienceAll,
			Title:    "Turn Skipped",
			Text:     fmt.Sprintf("%s is handcuffed and skips a turn", next.Players[receiver].Name),
		})
		return next, notices, nil
	}
	next.Current = receiver
	return next, notices, nil
}

// exhaust handles an empty chamber: either the round ends or, after the
// final round, the match is decided on health.
func exhaust(s *State) []Notice {
	if s.Round < s.MaxRounds {
		s.Phase = RoundEnd
		return []Notice{{
			Kind:     NoticeRoundComplete,
			Audience: AudienceAll,
			Title:    "Round Complete!",
			Text:     fmt.Sprintf("Round %d finished. Starting Round %d...", s.Round, s.Round+1),
		}}
	}
	resolve(s)
	return []Notice{matchOverNotice(*s)}
}

// resolve decides a match that ran out of rounds. Equal health is a draw.
func resolve(s *State) {
	s.Phase = Finished
	a, b := s.Players[0].Health, s.Players[1].Health
	switch {
	case a > b:
		s.Winner, s.Draw = 0, false
	case b > a:
		s.Winner, s.Draw = 1, false
	default:
		s.Winner, s.Draw = NoWinner, true
	}
}

func matchOverNotice(s State) Notice {
	text := "Draw! Both players are equally wounded"
	if w, ok := s.WinnerPlayer(); ok {
		text = fmt.Sprintf("%s WINS!", w.Name)
	}
	return Notice{Kind: NoticeMatchOver, Audience: AudienceAll, Title: "GAME OVER", Text: text}
}

func (e *Engine) startRound(s State) (State, []Notice, error) {
	if s.Phase != RoundEnd {
		return s, nil, ErrWrongPhase
	}
	next := s.Clone()
	next.Round++
	next.Shells = GenerateShells(e.rng, next.Round)
	next.CurrentShell = 0
	next.KnifeActive = false
	for i := range next.Players {
		next.Players[i].Handcuffed = false
		next.Players[i].Bonuses = GenerateBonuses(e.rng, next.Round)
	}
	next.Phase = Playing
	next.LastAction = fmt.Sprintf("Round %d started!", next.Round)
	return next, []Notice{{
		Kind:     NoticeRoundStarted,
		Audience: AudienceAll,
		Title:    fmt.Sprintf("Round %d", next.Round),
		Text:     next.LastAction,
	}}, nil
}
