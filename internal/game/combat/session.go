package combat

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/game/condition"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// State is the session lifecycle state. Victory and defeat are terminal: the
// session only reaches them through end detection, never as a side effect of
// an error.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateVictory
	StateDefeat
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateVictory:
		return "victory"
	case StateDefeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// DefaultLogWindow is the number of recent log lines a Snapshot retains for
// display when no override is configured. The full log is kept internally.
const DefaultLogWindow = 10

// Session is the aggregate root for one encounter. It owns all combatants,
// the fixed turn order, the round/turn cursor, and the append-only combat
// log, and exposes the engine's public operations. A Session is
// single-threaded: exactly one logical caller mutates it at a time, and each
// operation runs to completion. Distinct sessions share no mutable state.
type Session struct {
	ID string

	combatants []*Combatant
	byID       map[string]*Combatant

	// turnOrder holds combatant IDs, fixed after initiative. Defeated
	// combatants stay in the order and are skipped, preserving stable
	// indices.
	turnOrder []string
	turnIndex int
	round     int
	state     State

	// log is the full append-only encounter log; Snapshot exposes only the
	// trailing logWindow entries.
	log       []string
	logWindow int

	resolver *Resolver
	roller   *dice.Roller
	logger   *zap.Logger
}

// SessionOption configures a Session at construction time.
type SessionOption func(*Session)

// WithLogWindow overrides the number of log lines retained in snapshots.
func WithLogWindow(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.logWindow = n
		}
	}
}

// NewSession creates a Session over the given combatants. The dice roller is
// caller-owned, which makes outcomes deterministic under a seeded source.
//
// Precondition: roller, logger, and conditions must be non-nil; combatants
// must contain at least one combatant per side, each with a unique ID.
// Postcondition: Returns a Session in StateNotStarted, or an error.
func NewSession(combatants []*Combatant, roller *dice.Roller, logger *zap.Logger,
	conditions *condition.Registry, movementCost int, opts ...SessionOption) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		byID:      make(map[string]*Combatant, len(combatants)),
		state:     StateNotStarted,
		logWindow: DefaultLogWindow,
		resolver:  NewResolver(roller, logger, conditions, movementCost),
		roller:    roller,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	players, monsters := 0, 0
	for _, c := range combatants {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, dup := s.byID[c.ID]; dup {
			return nil, fmt.Errorf("combat: duplicate combatant id %q", c.ID)
		}
		if c.Conditions == nil {
			c.Conditions = condition.NewActiveSet()
		}
		c.MovementRemaining = c.Speed
		s.byID[c.ID] = c
		s.combatants = append(s.combatants, c)
		if c.IsPlayer() {
			players++
		} else {
			monsters++
		}
	}
	if players == 0 || monsters == 0 {
		return nil, fmt.Errorf("combat: need at least one combatant per side (players=%d, monsters=%d)", players, monsters)
	}
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Round returns the current round number (1-based once started).
func (s *Session) Round() int { return s.round }

// TurnIndex returns the position of the cursor within the turn order.
func (s *Session) TurnIndex() int { return s.turnIndex }

// TurnOrder returns a copy of the fixed turn order (combatant IDs).
func (s *Session) TurnOrder() []string {
	out := make([]string, len(s.turnOrder))
	copy(out, s.turnOrder)
	return out
}

// Combatant returns the combatant with the given ID.
func (s *Session) Combatant(id string) (*Combatant, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// CurrentActor returns the combatant whose turn it is, or nil before Start
// or after the session has ended.
func (s *Session) CurrentActor() *Combatant {
	if s.state != StateInProgress {
		return nil
	}
	return s.byID[s.turnOrder[s.turnIndex]]
}

// Start rolls initiative for every combatant, fixes the turn order, and
// moves the session to in_progress with the cursor on round 1, turn 0.
//
// Precondition: state is not_started.
// Postcondition: state is in_progress; turn order is set and never re-sorted.
func (s *Session) Start() error {
	if s.state != StateNotStarted {
		return fmt.Errorf("combat: session already started (state %s)", s.state)
	}

	for _, line := range RollInitiative(s.combatants, s.roller) {
		s.appendLog(line)
	}
	SortByInitiative(s.combatants)
	s.turnOrder = make([]string, len(s.combatants))
	for i, c := range s.combatants {
		s.turnOrder[i] = c.ID
	}

	s.state = StateInProgress
	s.round = 1
	s.turnIndex = 0
	s.appendLog("=== COMBAT BEGINS ===")
	s.appendLog(fmt.Sprintf("=== Round %d ===", s.round))
	s.logger.Info("combat started",
		zap.String("session", s.ID),
		zap.Strings("turn_order", s.turnOrder),
	)

	// The opening actor could already be a downed player if the snapshot
	// provider supplied one; settle to the first actionable combatant.
	s.settle()
	return nil
}

// SubmitAction resolves spec for the combatant with actorID against the
// optional targetID. Actions submitted for a combatant that is not the
// current actor are declined with not_your_turn; all other rule violations
// decline with their own reasons. Declined results never mutate state and
// never advance the turn, so the caller may retry with a different action
// while the relevant economy slot is free. After an applied action, end
// conditions are re-evaluated before control returns.
func (s *Session) SubmitAction(actorID string, spec *ActionSpec, targetID string) ActionResult {
	if s.state != StateInProgress {
		return ActionResult{Declined: true, Reason: ReasonCombatOver, ActorID: actorID,
			Description: fmt.Sprintf("combat is over (%s)", s.state)}
	}

	actor, ok := s.byID[actorID]
	if !ok {
		return ActionResult{Declined: true, Reason: ReasonInvalidTarget, ActorID: actorID,
			Description: fmt.Sprintf("unknown combatant %q", actorID)}
	}
	if current := s.CurrentActor(); current == nil || current.ID != actorID {
		return declined(actor, spec, targetID, ReasonNotYourTurn,
			fmt.Sprintf("it is not %s's turn", actor.Name))
	}

	var target *Combatant
	if targetID != "" {
		target, ok = s.byID[targetID]
		if !ok {
			return declined(actor, spec, targetID, ReasonInvalidTarget,
				fmt.Sprintf("unknown target %q", targetID))
		}
	}

	result := s.resolver.Resolve(Context{Actor: actor, Target: target, Combatants: s.combatants}, spec)
	if result.Declined {
		s.logger.Debug("action declined",
			zap.String("session", s.ID),
			zap.String("actor", actorID),
			zap.String("reason", string(result.Reason)),
		)
		return result
	}

	for _, line := range result.Log {
		s.appendLog(line)
	}
	s.checkEnd()
	return result
}

// SubmitNamed looks the action up in the actor's bag by name and resolves
// it. The built-in name "move" maps to the movement action; movement
// destinations may be given as "move:melee" / "move:ranged". An absent name
// is declined with unknown_ability.
func (s *Session) SubmitNamed(actorID, actionName, targetID string) ActionResult {
	switch actionName {
	case "move":
		return s.SubmitAction(actorID, MoveAction(), targetID)
	case "move:melee", "move:ranged":
		spec := MoveAction()
		spec.Option = actionName[len("move:"):]
		return s.SubmitAction(actorID, spec, targetID)
	}

	actor, ok := s.byID[actorID]
	if !ok {
		return ActionResult{Declined: true, Reason: ReasonInvalidTarget, ActorID: actorID,
			Description: fmt.Sprintf("unknown combatant %q", actorID)}
	}
	spec, ok := actor.FindAction(actionName)
	if !ok {
		return declined(actor, nil, targetID, ReasonUnknownAbility,
			fmt.Sprintf("%s has no action named %q", actor.Name, actionName))
	}
	return s.SubmitAction(actorID, spec, targetID)
}

// EndTurn ends the current actor's turn and advances the cursor to the next
// actionable combatant. Defeated combatants are skipped without consuming an
// action; a downed player-side combatant's "turn" is a death save resolved
// here instead of awaiting an action. When the cursor wraps, the round
// number increments and every still-alive combatant's action economy resets.
//
// Postcondition: Returns the session state; if still in_progress,
// CurrentActor is a living combatant awaiting an action.
func (s *Session) EndTurn() State {
	if s.state != StateInProgress {
		return s.state
	}

	// End-of-turn housekeeping for the actor whose turn is ending.
	if cur := s.CurrentActor(); cur != nil {
		for _, id := range cur.Conditions.ExpireEndOfTurn() {
			s.appendLog(fmt.Sprintf("%s is no longer %s", cur.Name, id))
		}
	}

	s.settleNext()
	return s.state
}

// settleNext advances the cursor at least one step, then settles.
func (s *Session) settleNext() {
	s.advanceCursor()
	s.settle()
}

// settle resolves death saves and skips defeated combatants until the cursor
// rests on a living combatant (or the session ends).
func (s *Session) settle() {
	// Each combatant is visited at most once per settle: death saves
	// consume the downed player's turn and the cursor keeps moving.
	for range s.turnOrder {
		if s.state != StateInProgress {
			return
		}
		c := s.byID[s.turnOrder[s.turnIndex]]

		if c.IsDead() {
			s.advanceCursor()
			continue
		}
		if c.IsUnconscious() {
			s.resolveDeathSaveTurn(c)
			if s.state != StateInProgress {
				return
			}
			s.advanceCursor()
			continue
		}
		return
	}
}

// advanceCursor increments the turn index, rolling the round over at the end
// of the order: round number increments, every still-alive combatant's
// action/bonus/reaction flags reset, movement refills, and round-scoped
// conditions tick down.
func (s *Session) advanceCursor() {
	s.turnIndex++
	if s.turnIndex < len(s.turnOrder) {
		return
	}
	s.turnIndex = 0
	s.round++
	for _, c := range s.combatants {
		if !c.IsAlive() {
			continue
		}
		c.ResetRound()
		for _, id := range c.Conditions.Tick() {
			s.appendLog(fmt.Sprintf("%s is no longer %s", c.Name, id))
		}
	}
	s.appendLog(fmt.Sprintf("=== Round %d ===", s.round))
	s.logger.Debug("round rollover", zap.String("session", s.ID), zap.Int("round", s.round))
}

// resolveDeathSaveTurn runs the death-save handler as the downed player's
// turn. Monsters never reach this path: a monster at 0 HP is dead and is
// skipped by settle.
func (s *Session) resolveDeathSaveTurn(c *Combatant) {
	result := ResolveDeathSave(c, s.roller)
	for _, line := range result.Log {
		s.appendLog(line)
	}
	switch result.Outcome {
	case DeathSaveStabilized:
		if def, ok := s.resolver.conditions.Get("stable"); ok {
			_ = c.Conditions.Apply(def, 1, -1)
		}
	case DeathSaveRevived:
		c.Conditions.Remove("unconscious")
		c.Conditions.Remove("stable")
	case DeathSaveDied:
		s.checkEnd()
	}
}

// checkEnd recomputes the end conditions after a state mutation: if no
// player-side combatant is alive the session is a defeat; otherwise if no
// monster-side combatant is alive it is a victory. Detection runs before the
// scheduler advances, so the terminal state is visible to the caller without
// a wasted turn.
func (s *Session) checkEnd() {
	if s.state != StateInProgress {
		return
	}
	playersAlive, monstersAlive := false, false
	for _, c := range s.combatants {
		if !c.IsAlive() {
			continue
		}
		if c.IsPlayer() {
			playersAlive = true
		} else {
			monstersAlive = true
		}
	}

	switch {
	case !playersAlive:
		s.state = StateDefeat
		s.appendLog("=== DEFEAT ===")
	case !monstersAlive:
		s.state = StateVictory
		s.appendLog("=== VICTORY ===")
	default:
		return
	}
	s.logger.Info("combat ended",
		zap.String("session", s.ID),
		zap.String("outcome", s.state.String()),
		zap.Int("rounds", s.round),
	)
}

// appendLog appends one line to the full combat log and echoes it to the
// structured logger.
func (s *Session) appendLog(line string) {
	s.log = append(s.log, line)
	s.logger.Info("combat log", zap.String("session", s.ID), zap.String("line", line))
}

// FullLog returns a copy of the complete combat log. The display window in
// Snapshot is bounded; this is the uncapped internal truth.
func (s *Session) FullLog() []string {
	out := make([]string, len(s.log))
	copy(out, s.log)
	return out
}
