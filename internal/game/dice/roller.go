package dice

import "sort"

// Advantage selects the d20 re-roll mode for RollD20.
type Advantage int

const (
	// Straight rolls one d20.
	Straight Advantage = iota
	// WithAdvantage rolls two d20 and keeps the higher.
	WithAdvantage
	// WithDisadvantage rolls two d20 and keeps the lower.
	WithDisadvantage
)

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: expr must come from Parse (Count >= 1, Sides >= 2); src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count when KeepHighest == 0, or
//
//	len(result.Dice) == expr.KeepHighest when KeepHighest > 0.
//	result.Total() == sum(result.Dice) + result.Modifier.
func Roll(expr Expression, src Source) (RollResult, error) {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}

	kept := rolled
	if expr.KeepHighest > 0 {
		sorted := make([]int, len(rolled))
		copy(sorted, rolled)
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		kept = sorted[:expr.KeepHighest]
	}

	return RollResult{
		Expression: expr.Raw,
		Dice:       kept,
		Modifier:   expr.Modifier,
	}, nil
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: expr must be a valid dice expression string; src must be non-nil.
// Postcondition: Returns a RollResult or a parse/roll error.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}

// RollD20 rolls a single d20 with the given advantage mode and flat modifier.
// Advantage and disadvantage roll two dice and keep the higher or lower
// respectively; the kept die is the only entry in RollResult.Dice, so callers
// can inspect it for natural-20/natural-1 handling.
//
// Precondition: src must be non-nil.
// Postcondition: len(result.Dice) == 1; 1 <= result.Dice[0] <= 20.
func RollD20(mode Advantage, modifier int, src Source) RollResult {
	first := src.Intn(20) + 1
	kept := first
	switch mode {
	case WithAdvantage:
		second := src.Intn(20) + 1
		if second > kept {
			kept = second
		}
	case WithDisadvantage:
		second := src.Intn(20) + 1
		if second < kept {
			kept = second
		}
	}
	return RollResult{
		Expression: "1d20" + modifierSuffix(modifier),
		Dice:       []int{kept},
		Modifier:   modifier,
	}
}
