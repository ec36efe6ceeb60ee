// Package condition models status conditions applied to combatants during an
// encounter: their static definitions (loaded from YAML) and the live set of
// conditions active on one combatant.
package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Duration type values for Definition.DurationType.
const (
	DurationRounds    = "rounds"     // expires after N round ticks
	DurationEndOfTurn = "end_of_turn" // cleared when the afflicted combatant's turn ends
	DurationPermanent = "permanent"  // stays until explicitly removed
)

// Definition is the static description of a condition, loaded from YAML.
type Definition struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	DurationType    string   `yaml:"duration_type"` // "rounds" | "end_of_turn" | "permanent"
	MaxStacks       int      `yaml:"max_stacks"`    // 0 = unstackable
	AttackPenalty   int      `yaml:"attack_penalty"`
	ACPenalty       int      `yaml:"ac_penalty"`
	RestrictActions []string `yaml:"restrict_actions"` // blocked action kinds, e.g. "attack"
}

// Validate checks the definition's basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty and DurationType
// is one of the recognised values.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("condition: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("condition %q: name must not be empty", d.ID)
	}
	switch d.DurationType {
	case DurationRounds, DurationEndOfTurn, DurationPermanent:
		return nil
	default:
		return fmt.Errorf("condition %q: unknown duration_type %q", d.ID, d.DurationType)
	}
}

// Registry holds all known condition definitions, keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Definition) {
	r.defs[def.ID] = def
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Definitions.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses and validates each as
// a Definition, and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to
// parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}

// Defaults returns a Registry preloaded with the conditions the combat engine
// itself applies. Deployments that ship a condition directory extend or
// override these via LoadDirectory.
func Defaults() *Registry {
	reg := NewRegistry()
	reg.Register(&Definition{ID: "unconscious", Name: "Unconscious", DurationType: DurationPermanent,
		RestrictActions: []string{"attack", "heal", "special", "movement"}})
	reg.Register(&Definition{ID: "stable", Name: "Stable", DurationType: DurationPermanent})
	reg.Register(&Definition{ID: "disengaging", Name: "Disengaging", DurationType: DurationEndOfTurn})
	reg.Register(&Definition{ID: "poisoned", Name: "Poisoned", DurationType: DurationRounds, AttackPenalty: 2})
	reg.Register(&Definition{ID: "stunned", Name: "Stunned", DurationType: DurationRounds,
		RestrictActions: []string{"attack", "special"}, ACPenalty: 2})
	return reg
}
