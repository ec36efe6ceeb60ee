// Package combat implements the turn-based D&D 2024 encounter engine: the
// combatant model, initiative, action resolution, death saves, and the
// session aggregate that owns one encounter from start to victory or defeat.
package combat

import (
	"github.com/cory-johannsen/encounter/internal/game/condition"
)

// Side distinguishes player-side combatants from monster-side combatants.
type Side int

const (
	SidePlayer Side = iota
	SideMonster
)

// String returns "player" or "monster".
func (s Side) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "monster"
}

// Position is the simplified two-state spatial model: a combatant is either
// engaged in melee or at range. There is no grid and no line of sight.
type Position int

const (
	PositionRanged Position = iota
	PositionMelee
)

// String returns "ranged" or "melee".
func (p Position) String() string {
	if p == PositionMelee {
		return "melee"
	}
	return "ranged"
}

// Toggled returns the opposite position.
func (p Position) Toggled() Position {
	if p == PositionMelee {
		return PositionRanged
	}
	return PositionMelee
}

// Abilities holds the six core ability scores.
type Abilities struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Constitution int `yaml:"constitution"`
	Intelligence int `yaml:"intelligence"`
	Wisdom       int `yaml:"wisdom"`
	Charisma     int `yaml:"charisma"`
}

// Modifier computes the standard ability modifier using floor division:
// floor((score - 10) / 2). Scores below 10 produce negative modifiers
// (score 7 → -2, not -1).
//
// Postcondition: Returns floor((score - 10) / 2).
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// Combatant is the mutable per-encounter state of one participant. It is
// created when the session is built from a character or monster snapshot,
// mutated throughout the encounter, and discarded when the session ends; the
// persistent record is updated only by an explicit post-combat sync.
//
// Invariant: 0 <= CurrentHP <= MaxHP; TempHP >= 0; death-save counters in [0, 3].
type Combatant struct {
	ID   string
	Name string
	Side Side

	Abilities Abilities
	Level     int

	AC        int
	MaxHP     int
	CurrentHP int
	TempHP    int
	Speed     int

	// Initiative is set once by RollInitiative and never re-rolled.
	Initiative int

	Position   Position
	Conditions *condition.ActiveSet

	// Actions is the bag of available actions, bonus actions, and
	// reactions, distinguished by each spec's Cost.
	Actions []*ActionSpec

	// Tactic names the decision script for monster-side combatants;
	// ignored for players.
	Tactic string

	// Per-round action economy, reset at every round rollover.
	ActionUsed        bool
	BonusUsed         bool
	ReactionUsed      bool
	MovementRemaining int

	// Death-save progress, tracked for player-side combatants only.
	DeathSaveSuccesses int
	DeathSaveFailures  int
}

// IsPlayer reports whether this combatant is on the player side.
func (c *Combatant) IsPlayer() bool { return c.Side == SidePlayer }

// IsAlive reports whether the combatant has hit points remaining.
//
// Postcondition: Returns true iff CurrentHP > 0.
func (c *Combatant) IsAlive() bool { return c.CurrentHP > 0 }

// IsDead reports whether this combatant is permanently dead.
// Monsters die the moment they reach 0 HP; players die only when their
// death-save failures reach 3 (by rolls or by massive damage).
func (c *Combatant) IsDead() bool {
	if c.Side == SidePlayer {
		return c.DeathSaveFailures >= 3
	}
	return c.CurrentHP <= 0
}

// IsUnconscious reports whether a player-side combatant is down but not dead.
func (c *Combatant) IsUnconscious() bool {
	return c.Side == SidePlayer && c.CurrentHP == 0 && c.DeathSaveFailures < 3
}

// IsStable reports whether a downed player-side combatant has accumulated
// three death-save successes and no longer rolls until damaged again.
func (c *Combatant) IsStable() bool {
	return c.IsUnconscious() && c.DeathSaveSuccesses >= 3
}

// DexModifier returns the dexterity modifier, used for initiative.
func (c *Combatant) DexModifier() int { return Modifier(c.Abilities.Dexterity) }

// TakeDamage applies amount points of damage from a single hit. Temporary
// hit points are consumed strictly before current hit points; current HP
// saturates at 0. If the damage reaching hit points is at least MaxHP while
// the combatant drops to exactly 0, death-save failures are forced to 3
// immediately (massive-damage instant death, no save). Damage taken while
// already at 0 clears accumulated death-save successes and drops the
// "stable" condition tag, so a stable combatant resumes rolling.
//
// Returns the total hit points removed (temporary plus current).
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP >= 0; TempHP >= 0.
func (c *Combatant) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}

	wasAtZero := c.CurrentHP == 0

	remaining := amount
	absorbed := 0
	if c.TempHP > 0 {
		absorbed = remaining
		if absorbed > c.TempHP {
			absorbed = c.TempHP
		}
		c.TempHP -= absorbed
		remaining -= absorbed
	}

	lost := remaining
	if lost > c.CurrentHP {
		lost = c.CurrentHP
	}
	c.CurrentHP -= lost

	if wasAtZero {
		c.DeathSaveSuccesses = 0
		if c.Conditions != nil {
			c.Conditions.Remove("stable")
		}
	}

	// Massive damage: the hit reduced the combatant to 0 and the damage
	// that reached hit points was at least their hit point maximum.
	if c.CurrentHP == 0 && remaining >= c.MaxHP && c.MaxHP > 0 {
		c.DeathSaveFailures = 3
	}

	return absorbed + lost
}

// Heal restores up to amount hit points, capped at MaxHP. Healing a
// combatant from 0 HP clears both death-save counters (they regain
// consciousness). Returns the hit points actually restored.
//
// Precondition: amount >= 0; the combatant must not be dead.
// Postcondition: CurrentHP <= MaxHP.
func (c *Combatant) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	if c.CurrentHP == 0 {
		c.DeathSaveSuccesses = 0
		c.DeathSaveFailures = 0
	}
	old := c.CurrentHP
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
	return c.CurrentHP - old
}

// ResetRound clears the per-round action economy: action, bonus action, and
// reaction become available again and movement refills to Speed.
func (c *Combatant) ResetRound() {
	c.ActionUsed = false
	c.BonusUsed = false
	c.ReactionUsed = false
	c.MovementRemaining = c.Speed
}

// FindAction returns the action spec with the given name from the
// combatant's bag, or (nil, false) if absent. Matching is exact.
func (c *Combatant) FindAction(name string) (*ActionSpec, bool) {
	for _, a := range c.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
