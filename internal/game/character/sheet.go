// Package character provides player character sheets: the snapshot contract
// an external campaign service fulfills, loadable from YAML party files or
// the sheet store, and instantiable as player-side combatants.
package character

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/condition"
)

// Sheet is one player character's combat-relevant snapshot. CurrentHP may be
// below MaxHP when the character enters an encounter already wounded.
type Sheet struct {
	ID        string             `yaml:"id" json:"id"`
	Name      string             `yaml:"name" json:"name"`
	Class     string             `yaml:"class,omitempty" json:"class,omitempty"`
	Level     int                `yaml:"level" json:"level"`
	MaxHP     int                `yaml:"max_hp" json:"max_hp"`
	CurrentHP *int               `yaml:"current_hp,omitempty" json:"current_hp,omitempty"`
	AC        int                `yaml:"ac" json:"ac"`
	Speed     int                `yaml:"speed" json:"speed"`
	Abilities combat.Abilities   `yaml:"abilities" json:"abilities"`
	Actions   []combat.ActionDef `yaml:"actions" json:"actions"`
}

// Validate checks that the sheet satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// MaxHP >= 1, AC >= 1, current HP (when present) is within [0, MaxHP], and
// every action has a non-empty name and a recognised kind.
func (s *Sheet) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("character sheet: id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("character sheet %q: name must not be empty", s.ID)
	}
	if s.Level < 1 {
		return fmt.Errorf("character sheet %q: level must be >= 1", s.ID)
	}
	if s.MaxHP < 1 {
		return fmt.Errorf("character sheet %q: max_hp must be >= 1", s.ID)
	}
	if s.AC < 1 {
		return fmt.Errorf("character sheet %q: ac must be >= 1", s.ID)
	}
	if s.CurrentHP != nil && (*s.CurrentHP < 0 || *s.CurrentHP > s.MaxHP) {
		return fmt.Errorf("character sheet %q: current_hp %d outside [0, %d]", s.ID, *s.CurrentHP, s.MaxHP)
	}
	for i, def := range s.Actions {
		if def.Name == "" {
			return fmt.Errorf("character sheet %q: action %d: name must not be empty", s.ID, i)
		}
		if def.Spec().Kind == combat.ActionUnknown {
			return fmt.Errorf("character sheet %q: action %q: unknown kind %q", s.ID, def.Name, def.Kind)
		}
	}
	return nil
}

// NewCombatant instantiates the sheet as a player-side combatant. Each call
// produces an independent instance with its own action copies.
//
// Precondition: s has passed Validate.
func (s *Sheet) NewCombatant() *combat.Combatant {
	hp := s.MaxHP
	if s.CurrentHP != nil {
		hp = *s.CurrentHP
	}
	speed := s.Speed
	if speed == 0 {
		speed = 30
	}

	c := &combat.Combatant{
		ID:                s.ID,
		Name:              s.Name,
		Side:              combat.SidePlayer,
		Abilities:         s.Abilities,
		Level:             s.Level,
		AC:                s.AC,
		MaxHP:             s.MaxHP,
		CurrentHP:         hp,
		Speed:             speed,
		MovementRemaining: speed,
		Position:          combat.PositionMelee,
		Conditions:        condition.NewActiveSet(),
	}
	for _, def := range s.Actions {
		c.Actions = append(c.Actions, def.Spec())
	}
	return c
}

// Party is a named group of character sheets loaded from one YAML file.
type Party struct {
	Name       string   `yaml:"name"`
	Characters []*Sheet `yaml:"characters"`
}

// LoadParty reads a party YAML file and validates every sheet in it.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns a party with at least one sheet, or an error.
func LoadParty(path string) (*Party, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading party file %q: %w", path, err)
	}

	var party Party
	if err := yaml.Unmarshal(data, &party); err != nil {
		return nil, fmt.Errorf("parsing party file %q: %w", path, err)
	}
	if len(party.Characters) == 0 {
		return nil, fmt.Errorf("party file %q: no characters", path)
	}

	seen := make(map[string]bool, len(party.Characters))
	for _, sheet := range party.Characters {
		if err := sheet.Validate(); err != nil {
			return nil, fmt.Errorf("party file %q: %w", path, err)
		}
		if seen[sheet.ID] {
			return nil, fmt.Errorf("party file %q: duplicate character id %q", path, sheet.ID)
		}
		seen[sheet.ID] = true
	}
	return &party, nil
}

// Combatants instantiates every sheet in the party.
func (p *Party) Combatants() []*combat.Combatant {
	out := make([]*combat.Combatant, len(p.Characters))
	for i, sheet := range p.Characters {
		out[i] = sheet.NewCombatant()
	}
	return out
}
