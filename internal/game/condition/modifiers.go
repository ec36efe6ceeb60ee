package condition

// AttackPenalty returns the net attack roll modifier from all active
// conditions. Stackable conditions multiply their penalty by the current
// stack count.
//
// Postcondition: Returns <= 0.
func AttackPenalty(s *ActiveSet) int {
	total := 0
	for _, ac := range s.conditions {
		if ac.Def.AttackPenalty > 0 {
			total -= ac.Def.AttackPenalty * ac.Stacks
		}
	}
	return total
}

// ACPenalty returns the net armor class modifier from all active conditions.
// Stackable conditions multiply their penalty by the current stack count.
//
// Postcondition: Returns <= 0.
func ACPenalty(s *ActiveSet) int {
	total := 0
	for _, ac := range s.conditions {
		if ac.Def.ACPenalty > 0 {
			total -= ac.Def.ACPenalty * ac.Stacks
		}
	}
	return total
}

// IsActionRestricted reports whether the given action kind string is blocked
// by any active condition's RestrictActions list.
func IsActionRestricted(s *ActiveSet, kind string) bool {
	for _, ac := range s.conditions {
		for _, r := range ac.Def.RestrictActions {
			if r == kind {
				return true
			}
		}
	}
	return false
}
