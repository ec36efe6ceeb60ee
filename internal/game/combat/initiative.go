package combat

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// RollInitiative rolls 1d20 + dexterity modifier once for every combatant
// and stores the total on the combatant. Initiative is never re-rolled, even
// if dexterity later changes.
//
// Precondition: combatants and roller must be non-nil.
// Postcondition: Each combatant's Initiative field is set. Returns one log
// line per combatant.
func RollInitiative(combatants []*Combatant, roller *dice.Roller) []string {
	lines := make([]string, 0, len(combatants))
	for _, c := range combatants {
		r := roller.RollD20(dice.Straight, c.DexModifier())
		c.Initiative = r.Total()
		lines = append(lines, fmt.Sprintf("%s rolls initiative: %d %+d = %d",
			c.Name, r.Dice[0], c.DexModifier(), c.Initiative))
	}
	return lines
}

// SortByInitiative sorts combatants in place into turn order: descending by
// initiative total, ties broken descending by raw dexterity modifier (no
// second roll). Ties remaining after that keep the order the combatants were
// supplied in — the sort is stable.
//
// Postcondition: combatants[i].Initiative >= combatants[i+1].Initiative for all i.
func SortByInitiative(combatants []*Combatant) {
	sort.SliceStable(combatants, func(i, j int) bool {
		if combatants[i].Initiative != combatants[j].Initiative {
			return combatants[i].Initiative > combatants[j].Initiative
		}
		return combatants[i].DexModifier() > combatants[j].DexModifier()
	})
}
