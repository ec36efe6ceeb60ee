package condition

import "fmt"

// Active tracks one applied condition on a combatant.
type Active struct {
	Def               *Definition
	Stacks            int
	DurationRemaining int // rounds remaining; -1 = permanent or end_of_turn
}

// ActiveSet tracks all conditions currently applied to one combatant.
// It is not safe for concurrent use; the combat session serialises access.
type ActiveSet struct {
	conditions map[string]*Active
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{conditions: make(map[string]*Active)}
}

// Apply adds or updates a condition. Re-applying an existing condition
// increments stacks (capped at MaxStacks; unstackable conditions stay at 1)
// and extends the duration to max(existing, duration). duration is rounds
// remaining; use -1 for permanent and end_of_turn conditions.
//
// Precondition: def must not be nil.
// Postcondition: Has(def.ID) is true.
func (s *ActiveSet) Apply(def *Definition, stacks, duration int) error {
	if def == nil {
		return fmt.Errorf("condition: Apply requires a non-nil definition")
	}

	if existing, ok := s.conditions[def.ID]; ok {
		if def.MaxStacks > 0 {
			newStacks := existing.Stacks + stacks
			if newStacks > def.MaxStacks {
				newStacks = def.MaxStacks
			}
			existing.Stacks = newStacks
		}
		if duration > existing.DurationRemaining {
			existing.DurationRemaining = duration
		}
		return nil
	}

	effective := stacks
	if def.MaxStacks == 0 {
		effective = 1
	} else if effective > def.MaxStacks {
		effective = def.MaxStacks
	}
	s.conditions[def.ID] = &Active{
		Def:               def,
		Stacks:            effective,
		DurationRemaining: duration,
	}
	return nil
}

// Remove deletes the condition with the given ID from the set.
// Removing an absent condition is a no-op.
//
// Postcondition: Has(id) is false.
func (s *ActiveSet) Remove(id string) {
	delete(s.conditions, id)
}

// Tick decrements the DurationRemaining of all rounds-type conditions by 1
// and removes those that reach 0. Permanent and end-of-turn conditions are
// unaffected. Returns the IDs of expired conditions.
//
// Postcondition: For every id in the returned slice, Has(id) is false.
func (s *ActiveSet) Tick() []string {
	var expired []string
	for id, ac := range s.conditions {
		if ac.Def.DurationType != DurationRounds || ac.DurationRemaining < 0 {
			continue
		}
		ac.DurationRemaining--
		if ac.DurationRemaining <= 0 {
			expired = append(expired, id)
			delete(s.conditions, id)
		}
	}
	return expired
}

// ExpireEndOfTurn removes all end_of_turn conditions, returning their IDs.
// Called by the scheduler when the afflicted combatant's turn ends.
//
// Postcondition: No end_of_turn condition remains in the set.
func (s *ActiveSet) ExpireEndOfTurn() []string {
	var expired []string
	for id, ac := range s.conditions {
		if ac.Def.DurationType == DurationEndOfTurn {
			expired = append(expired, id)
			delete(s.conditions, id)
		}
	}
	return expired
}

// Has reports whether the condition with id is currently active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.conditions[id]
	return ok
}

// Stacks returns the current stack count for condition id, or 0 if not present.
func (s *ActiveSet) Stacks(id string) int {
	if ac, ok := s.conditions[id]; ok {
		return ac.Stacks
	}
	return 0
}

// IDs returns the active condition IDs in no particular order. Each tag
// appears at most once regardless of stacking.
func (s *ActiveSet) IDs() []string {
	out := make([]string, 0, len(s.conditions))
	for id := range s.conditions {
		out = append(out, id)
	}
	return out
}

// All returns a slice of pointers to the active conditions. The slice is a
// new allocation but the pointed-to Active values are shared; callers must
// not modify them.
func (s *ActiveSet) All() []*Active {
	out := make([]*Active, 0, len(s.conditions))
	for _, ac := range s.conditions {
		out = append(out, ac)
	}
	return out
}
