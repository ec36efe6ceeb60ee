package combat

import (
	"fmt"

	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// DeathSaveOutcome classifies the result of one death saving throw.
type DeathSaveOutcome int

const (
	// DeathSaveSuccess: rolled 10-19, one success recorded.
	DeathSaveSuccess DeathSaveOutcome = iota
	// DeathSaveFailure: rolled 2-9, one failure recorded.
	DeathSaveFailure
	// DeathSaveCritFailure: natural 1, two failures recorded.
	DeathSaveCritFailure
	// DeathSaveRevived: natural 20, regained 1 HP and cleared all counters.
	DeathSaveRevived
	// DeathSaveStabilized: the roll brought successes to 3; the combatant
	// stays at 0 HP but rolls no further saves until damaged again.
	DeathSaveStabilized
	// DeathSaveDied: failures reached 3; the combatant is dead.
	DeathSaveDied
	// DeathSaveSkipped: the combatant is already stable; no roll occurred.
	DeathSaveSkipped
)

// DeathSaveResult reports one death-save resolution.
type DeathSaveResult struct {
	CombatantID string
	Roll        int // natural d20; 0 when skipped
	Outcome     DeathSaveOutcome
	Successes   int
	Failures    int
	Log         []string
}

// ResolveDeathSave rolls one death saving throw for a downed player-side
// combatant: natural 20 revives with 1 HP and clears both counters; natural
// 1 counts as two failures; 10-19 is a success; 2-9 is a failure. Three
// successes stabilize (no further rolls until damaged again); three failures
// kill. A combatant who is already stable does not roll.
//
// Precondition: c is player-side, at 0 HP, and not dead
// (DeathSaveFailures < 3); roller must be non-nil.
// Postcondition: c's counters reflect the outcome; Log has at least one line
// unless the save was skipped.
func ResolveDeathSave(c *Combatant, roller *dice.Roller) DeathSaveResult {
	result := DeathSaveResult{CombatantID: c.ID}

	if c.IsStable() {
		result.Outcome = DeathSaveSkipped
		result.Successes = c.DeathSaveSuccesses
		result.Failures = c.DeathSaveFailures
		return result
	}

	roll := roller.RollD20(dice.Straight, 0)
	natural := roll.Dice[0]
	result.Roll = natural

	switch {
	case natural == 20:
		c.Heal(1)
		result.Outcome = DeathSaveRevived
		result.Log = append(result.Log,
			fmt.Sprintf("%s rolls a natural 20 on their death save and springs back up with 1 HP!", c.Name))
	case natural == 1:
		c.DeathSaveFailures += 2
		if c.DeathSaveFailures > 3 {
			c.DeathSaveFailures = 3
		}
		result.Outcome = DeathSaveCritFailure
		result.Log = append(result.Log,
			fmt.Sprintf("%s rolls a 1 on their death save: two failures! (%d/3)", c.Name, c.DeathSaveFailures))
	case natural >= 10:
		c.DeathSaveSuccesses++
		result.Outcome = DeathSaveSuccess
		result.Log = append(result.Log,
			fmt.Sprintf("%s succeeds on a death save (%d/3)", c.Name, c.DeathSaveSuccesses))
	default:
		c.DeathSaveFailures++
		result.Outcome = DeathSaveFailure
		result.Log = append(result.Log,
			fmt.Sprintf("%s fails a death save (%d/3)", c.Name, c.DeathSaveFailures))
	}

	if result.Outcome != DeathSaveRevived {
		if c.DeathSaveFailures >= 3 {
			result.Outcome = DeathSaveDied
			result.Log = append(result.Log, fmt.Sprintf("%s has died!", c.Name))
		} else if c.DeathSaveSuccesses >= 3 {
			result.Outcome = DeathSaveStabilized
			result.Log = append(result.Log, fmt.Sprintf("%s is stabilized at 0 HP", c.Name))
		}
	}

	result.Successes = c.DeathSaveSuccesses
	result.Failures = c.DeathSaveFailures
	return result
}
