// Package monster provides monster template definitions and instantiation
// into live combatants.
package monster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/condition"
)

// Template defines a reusable monster archetype loaded from YAML.
type Template struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Level       int                `yaml:"level"`
	MaxHP       int                `yaml:"max_hp"`
	AC          int                `yaml:"ac"`
	Speed       int                `yaml:"speed"`
	Abilities   combat.Abilities   `yaml:"abilities"`
	Position    string             `yaml:"position"` // starting position; empty = melee
	Tactic      string             `yaml:"tactic"`   // decision tactic; empty = basic_melee
	Actions     []combat.ActionDef `yaml:"actions"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// MaxHP >= 1, AC >= 1, Speed >= 0, and every action has a non-empty name and
// a recognised kind; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("monster template %q: level must be >= 1", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("monster template %q: max_hp must be >= 1", t.ID)
	}
	if t.AC < 1 {
		return fmt.Errorf("monster template %q: ac must be >= 1", t.ID)
	}
	if t.Speed < 0 {
		return fmt.Errorf("monster template %q: speed must be >= 0", t.ID)
	}
	switch t.Position {
	case "", "melee", "ranged":
	default:
		return fmt.Errorf("monster template %q: position %q must be melee or ranged", t.ID, t.Position)
	}
	for i, def := range t.Actions {
		if def.Name == "" {
			return fmt.Errorf("monster template %q: action %d: name must not be empty", t.ID, i)
		}
		if def.Spec().Kind == combat.ActionUnknown {
			return fmt.Errorf("monster template %q: action %q: unknown kind %q", t.ID, def.Name, def.Kind)
		}
	}
	return nil
}

// NewCombatant instantiates the template as a live monster-side combatant.
// Each call produces an independent instance with its own action copies and
// use counters.
//
// Precondition: t has passed Validate.
// Postcondition: Returns a combatant at full HP with a fresh unique ID.
func (t *Template) NewCombatant(name string) *combat.Combatant {
	if name == "" {
		name = t.Name
	}
	position := combat.PositionMelee
	if t.Position == "ranged" {
		position = combat.PositionRanged
	}

	c := &combat.Combatant{
		ID:                fmt.Sprintf("%s-%s", t.ID, uuid.NewString()[:8]),
		Name:              name,
		Side:              combat.SideMonster,
		Abilities:         t.Abilities,
		Level:             t.Level,
		AC:                t.AC,
		MaxHP:             t.MaxHP,
		CurrentHP:         t.MaxHP,
		Speed:             t.Speed,
		MovementRemaining: t.Speed,
		Position:          position,
		Tactic:            t.Tactic,
		Conditions:        condition.NewActiveSet(),
	}
	for _, def := range t.Actions {
		c.Actions = append(c.Actions, def.Spec())
	}
	return c
}

// LoadTemplateFromBytes parses a single monster template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
