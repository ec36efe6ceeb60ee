package combat_test

import (
	"testing"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/condition"
)

// newSession builds a started-not-yet-Started session over the given
// combatants with a scripted dice source.
func newSession(t *testing.T, combatants []*combat.Combatant, values ...int) *combat.Session {
	t.Helper()
	s, err := combat.NewSession(combatants, newTestRoller(values...), zap.NewNop(), condition.Defaults(), 15)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

// TestSession_EndToEndVictory runs the minimal full encounter: a player
// (HP 10, AC 16) against a monster (HP 7, AC 13). The player rolls initiative
// 18 against the monster's 9, so the turn order is [player, monster]. The
// player's opening attack hits and deals 7, dropping the monster to 0, and
// the session reaches victory before the scheduler ever advances.
func TestSession_EndToEndVictory(t *testing.T) {
	p := newPlayer("hero", 10, 16)
	p.Actions = []*combat.ActionSpec{swordAction()}
	m := newMonster("goblin", 7, 13)

	// Initiative faces 18 and 9, then attack face 15 (15+4=19 vs AC 13),
	// then damage face 4 (4+3=7).
	s := newSession(t, []*combat.Combatant{p, m}, 17, 8, 14, 3)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := s.TurnOrder(); len(got) != 2 || got[0] != "hero" || got[1] != "goblin" {
		t.Fatalf("TurnOrder = %v, want [hero goblin]", got)
	}
	if actor := s.CurrentActor(); actor == nil || actor.ID != "hero" {
		t.Fatal("the player should act first")
	}

	result := s.SubmitNamed("hero", "shortsword", "goblin")
	if result.Declined {
		t.Fatalf("attack declined: %s (%s)", result.Reason, result.Description)
	}
	if result.DamageDealt != 7 {
		t.Errorf("DamageDealt = %d, want 7", result.DamageDealt)
	}
	if m.CurrentHP != 0 || !m.IsDead() {
		t.Error("monster should be dead at 0 HP")
	}

	// Victory is detected by the mutation itself, not by the next EndTurn.
	if s.State() != combat.StateVictory {
		t.Fatalf("State = %v, want victory", s.State())
	}
	if got := s.EndTurn(); got != combat.StateVictory {
		t.Errorf("EndTurn after victory = %v, want victory", got)
	}

	sum, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Outcome != "victory" || sum.Rounds != 1 {
		t.Errorf("Summary = %q after %d rounds, want victory after 1", sum.Outcome, sum.Rounds)
	}
	if len(sum.DefeatedMonsters) != 1 || sum.DefeatedMonsters[0] != "goblin" {
		t.Errorf("DefeatedMonsters = %v, want [goblin]", sum.DefeatedMonsters)
	}
	if len(sum.Survivors) != 1 || sum.Survivors[0].CurrentHP != 10 {
		t.Errorf("Survivors = %v, want hero at 10 HP", sum.Survivors)
	}
}

// TestSession_NotYourTurn verifies that an out-of-turn submission is declined
// without mutating anything or advancing the cursor.
func TestSession_NotYourTurn(t *testing.T) {
	p := newPlayer("hero", 10, 16)
	m := newMonster("goblin", 7, 13)
	m.Actions = []*combat.ActionSpec{swordAction()}

	s := newSession(t, []*combat.Combatant{p, m}, 17, 8)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	result := s.SubmitNamed("goblin", "shortsword", "hero")
	if !result.Declined || result.Reason != combat.ReasonNotYourTurn {
		t.Fatalf("result = %+v, want not_your_turn decline", result)
	}
	if m.ActionUsed {
		t.Error("declined action must not consume the action slot")
	}
	if p.CurrentHP != 10 {
		t.Error("declined action must not deal damage")
	}
	if actor := s.CurrentActor(); actor == nil || actor.ID != "hero" {
		t.Error("cursor must not move on a decline")
	}
}

// TestSession_RoundRollover verifies that ending every turn in the order
// increments the round and resets action economy and movement.
func TestSession_RoundRollover(t *testing.T) {
	p := newPlayer("hero", 10, 16)
	m := newMonster("goblin", 7, 13)

	s := newSession(t, []*combat.Combatant{p, m}, 17, 8)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Spend the player's movement so the reset is observable.
	result := s.SubmitNamed("hero", "move:ranged", "")
	if result.Declined {
		t.Fatalf("move declined: %s", result.Reason)
	}
	if p.MovementRemaining != 15 {
		t.Fatalf("MovementRemaining = %d after moving, want 15", p.MovementRemaining)
	}

	s.EndTurn() // hero -> goblin
	if actor := s.CurrentActor(); actor == nil || actor.ID != "goblin" {
		t.Fatal("goblin should act second")
	}
	s.EndTurn() // goblin -> rollover -> hero

	if s.Round() != 2 {
		t.Errorf("Round = %d, want 2", s.Round())
	}
	if s.TurnIndex() != 0 {
		t.Errorf("TurnIndex = %d, want 0", s.TurnIndex())
	}
	if p.MovementRemaining != 30 {
		t.Errorf("MovementRemaining = %d after rollover, want 30", p.MovementRemaining)
	}
	if p.Position != combat.PositionRanged {
		t.Error("position must persist across rounds")
	}
}

// TestSession_SkipsDeadCombatants verifies the turn order is never re-sorted:
// a combatant killed mid-round stays in the order and is skipped.
func TestSession_SkipsDeadCombatants(t *testing.T) {
	p := newPlayer("hero", 10, 16)
	p.Actions = []*combat.ActionSpec{swordAction()}
	m1 := newMonster("goblin-1", 7, 13)
	m2 := newMonster("goblin-2", 7, 13)

	// Initiative faces 18, 15, 9; then attack 15, damage 4.
	s := newSession(t, []*combat.Combatant{p, m1, m2}, 17, 14, 8, 14, 3)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	result := s.SubmitNamed("hero", "shortsword", "goblin-1")
	if result.Declined {
		t.Fatalf("attack declined: %s", result.Reason)
	}
	if s.State() != combat.StateInProgress {
		t.Fatalf("State = %v, want in_progress with a monster still alive", s.State())
	}

	s.EndTurn()
	if actor := s.CurrentActor(); actor == nil || actor.ID != "goblin-2" {
		t.Errorf("CurrentActor = %v, want goblin-2 (dead goblin-1 skipped)", actor)
	}
	if got := s.TurnOrder(); len(got) != 3 || got[1] != "goblin-1" {
		t.Errorf("TurnOrder = %v, dead combatants must keep their slot", got)
	}
}

// TestSession_DeathSaveConsumesTurn verifies a downed player's turn is a
// death save: the handler rolls once and the cursor moves on.
func TestSession_DeathSaveConsumesTurn(t *testing.T) {
	p1 := newPlayer("hero", 10, 16)
	p1.CurrentHP = 0
	p2 := newPlayer("cleric", 10, 14)
	m := newMonster("goblin", 7, 13)

	// Initiative faces 18, 14, 9; then hero's death save face 8 (failure).
	s := newSession(t, []*combat.Combatant{p1, p2, m}, 17, 13, 8, 7)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if p1.DeathSaveFailures != 1 {
		t.Errorf("DeathSaveFailures = %d, want 1", p1.DeathSaveFailures)
	}
	if actor := s.CurrentActor(); actor == nil || actor.ID != "cleric" {
		t.Errorf("CurrentActor = %v, want cleric (death save consumed hero's turn)", actor)
	}
}

// TestSession_AllPlayersDownIsDefeat verifies defeat is detected when the
// last player-side combatant drops, even though unconscious players are not
// yet dead.
func TestSession_AllPlayersDownIsDefeat(t *testing.T) {
	p := newPlayer("hero", 10, 16)
	p.AC = 1        // guarantee the hit
	p.CurrentHP = 5 // low enough to drop without triggering massive damage
	m := newMonster("goblin", 7, 13)
	m.Actions = []*combat.ActionSpec{swordAction()}

	// Initiative faces 9 and 18 so the monster acts first; attack face 15;
	// damage face 3 (3+3=6) drops the hero to 0 without instant death.
	s := newSession(t, []*combat.Combatant{p, m}, 8, 17, 14, 2)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	result := s.SubmitNamed("goblin", "shortsword", "hero")
	if result.Declined {
		t.Fatalf("attack declined: %s", result.Reason)
	}
	if !p.IsUnconscious() {
		t.Fatalf("hero at %d HP, want unconscious at 0", p.CurrentHP)
	}
	if s.State() != combat.StateDefeat {
		t.Errorf("State = %v, want defeat with no players standing", s.State())
	}
}

// TestSession_CombatOverDeclines verifies submissions after a terminal state
// are declined with combat_over.
func TestSession_CombatOverDeclines(t *testing.T) {
	p := newPlayer("hero", 10, 16)
	p.Actions = []*combat.ActionSpec{swordAction()}
	m := newMonster("goblin", 7, 13)

	s := newSession(t, []*combat.Combatant{p, m}, 17, 8, 14, 3)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if result := s.SubmitNamed("hero", "shortsword", "goblin"); result.Declined {
		t.Fatalf("attack declined: %s", result.Reason)
	}

	result := s.SubmitNamed("hero", "shortsword", "goblin")
	if !result.Declined || result.Reason != combat.ReasonCombatOver {
		t.Errorf("result = %+v, want combat_over decline", result)
	}
}

// TestSession_SnapshotLogWindow verifies the snapshot caps the log to the
// configured window while FullLog keeps everything.
func TestSession_SnapshotLogWindow(t *testing.T) {
	p := newPlayer("hero", 10, 16)
	m := newMonster("goblin", 7, 13)

	s, err := combat.NewSession([]*combat.Combatant{p, m}, newTestRoller(17, 8),
		zap.NewNop(), condition.Defaults(), 15, combat.WithLogWindow(3))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 3; i++ {
		s.EndTurn()
		s.EndTurn()
	}

	full := s.FullLog()
	snap := s.Snapshot()
	if len(snap.Log) != 3 {
		t.Fatalf("snapshot log lines = %d, want 3", len(snap.Log))
	}
	if len(full) <= 3 {
		t.Fatalf("full log lines = %d, want more than the window", len(full))
	}
	for i, line := range snap.Log {
		if want := full[len(full)-3+i]; line != want {
			t.Errorf("window line %d = %q, want %q", i, line, want)
		}
	}
	if snap.CurrentActorID != s.CurrentActor().ID {
		t.Error("snapshot must expose the current actor")
	}
}

// TestSession_SummaryBeforeEnd verifies Summary refuses to report on a live
// session.
func TestSession_SummaryBeforeEnd(t *testing.T) {
	p := newPlayer("hero", 10, 16)
	m := newMonster("goblin", 7, 13)
	s := newSession(t, []*combat.Combatant{p, m}, 17, 8)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Summary(); err == nil {
		t.Error("Summary should error while the session is in progress")
	}
}

// TestNewSession_Validation verifies side and uniqueness requirements.
func TestNewSession_Validation(t *testing.T) {
	roller := newTestRoller()
	reg := condition.Defaults()

	_, err := combat.NewSession([]*combat.Combatant{newPlayer("a", 10, 16)}, roller, zap.NewNop(), reg, 15)
	if err == nil {
		t.Error("a session with no monsters should be rejected")
	}

	_, err = combat.NewSession([]*combat.Combatant{
		newPlayer("a", 10, 16), newMonster("a", 7, 13),
	}, roller, zap.NewNop(), reg, 15)
	if err == nil {
		t.Error("duplicate combatant IDs should be rejected")
	}
}

// TestSession_SubmitNamedUnknown verifies name lookup misses decline with
// unknown_ability.
func TestSession_SubmitNamedUnknown(t *testing.T) {
	p := newPlayer("hero", 10, 16)
	m := newMonster("goblin", 7, 13)
	s := newSession(t, []*combat.Combatant{p, m}, 17, 8)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	result := s.SubmitNamed("hero", "fireball", "goblin")
	if !result.Declined || result.Reason != combat.ReasonUnknownAbility {
		t.Errorf("result = %+v, want unknown_ability decline", result)
	}
}
