package character_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/encounter/internal/game/character"
	"github.com/cory-johannsen/encounter/internal/game/combat"
)

const partyYAML = `
name: The Bronze Hawks
characters:
  - id: fighter-1
    name: Brakka
    class: fighter
    level: 3
    max_hp: 28
    ac: 16
    speed: 30
    abilities:
      strength: 16
      dexterity: 12
      constitution: 14
      intelligence: 10
      wisdom: 10
      charisma: 8
    actions:
      - name: longsword
        kind: attack
        attack_bonus: 5
        damage_dice: 1d8
        damage_bonus: 3
        damage_type: slashing
        reach: melee
        requires_target: true
      - name: second wind
        kind: special
        cost: bonus_action
        special: second_wind
        uses: 1
  - id: rogue-1
    name: Vex
    class: rogue
    level: 3
    max_hp: 21
    current_hp: 15
    ac: 14
    abilities:
      strength: 10
      dexterity: 16
      constitution: 12
      intelligence: 12
      wisdom: 10
      charisma: 13
    actions:
      - name: dagger
        kind: attack
        attack_bonus: 5
        damage_dice: 1d4
        damage_bonus: 3
        damage_type: piercing
        reach: melee
        requires_target: true
`

func writeParty(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "party.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestLoadParty_ParsesSheets(t *testing.T) {
	party, err := character.LoadParty(writeParty(t, partyYAML))
	require.NoError(t, err)
	assert.Equal(t, "The Bronze Hawks", party.Name)
	require.Len(t, party.Characters, 2)

	brakka := party.Characters[0]
	assert.Equal(t, "fighter-1", brakka.ID)
	assert.Equal(t, 28, brakka.MaxHP)
	assert.Equal(t, 16, brakka.Abilities.Strength)
	require.Len(t, brakka.Actions, 2)
	assert.Equal(t, "second_wind", brakka.Actions[1].Special)
}

func TestLoadParty_DuplicateID_ReturnsError(t *testing.T) {
	dup := `
characters:
  - id: a
    name: One
    level: 1
    max_hp: 5
    ac: 10
  - id: a
    name: Two
    level: 1
    max_hp: 5
    ac: 10
`
	_, err := character.LoadParty(writeParty(t, dup))
	assert.Error(t, err)
}

func TestLoadParty_Empty_ReturnsError(t *testing.T) {
	_, err := character.LoadParty(writeParty(t, `name: Nobody`))
	assert.Error(t, err)
}

func TestSheet_Validate_CurrentHPRange(t *testing.T) {
	bad := -1
	s := &character.Sheet{ID: "x", Name: "X", Level: 1, MaxHP: 10, AC: 10, CurrentHP: &bad}
	assert.Error(t, s.Validate())

	over := 11
	s.CurrentHP = &over
	assert.Error(t, s.Validate())

	ok := 10
	s.CurrentHP = &ok
	assert.NoError(t, s.Validate())
}

func TestSheet_NewCombatant(t *testing.T) {
	party, err := character.LoadParty(writeParty(t, partyYAML))
	require.NoError(t, err)

	combatants := party.Combatants()
	require.Len(t, combatants, 2)

	brakka := combatants[0]
	assert.Equal(t, combat.SidePlayer, brakka.Side)
	assert.Equal(t, 28, brakka.CurrentHP, "full HP when current_hp absent")
	assert.Equal(t, 30, brakka.MovementRemaining)
	require.Len(t, brakka.Actions, 2)
	assert.Equal(t, 1, brakka.Actions[1].UsesRemaining)

	vex := combatants[1]
	assert.Equal(t, 15, vex.CurrentHP, "wounded characters keep their current HP")
	assert.Equal(t, 30, vex.Speed, "speed defaults to 30")
}

func TestSheet_NewCombatant_IndependentActionCopies(t *testing.T) {
	party, err := character.LoadParty(writeParty(t, partyYAML))
	require.NoError(t, err)

	a := party.Characters[0].NewCombatant()
	b := party.Characters[0].NewCombatant()
	a.Actions[1].UsesRemaining = 0
	assert.Equal(t, 1, b.Actions[1].UsesRemaining)
}
