package dice_test

import (
	"testing"

	"github.com/cory-johannsen/encounter/internal/game/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestRollResult_Total verifies the postcondition: Total() == sum(Dice) + Modifier.
func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, 12, r.Total(), "Total() must equal sum(Dice)+Modifier")
}

// TestRollResult_String verifies the audit string contains expression, dice, and total.
func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, "2d6+3 → [4 5] +3 = 12", r.String())
}

// TestRollResult_Total_Property verifies Total() == sum(Dice)+Modifier for
// arbitrary inputs.
func TestRollResult_Total_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dice_ := rapid.SliceOf(rapid.IntRange(1, 20)).Draw(rt, "dice")
		modifier := rapid.Int().Draw(rt, "modifier")

		r := dice.RollResult{Expression: "Nd6+M", Dice: dice_, Modifier: modifier}

		expected := modifier
		for _, d := range dice_ {
			expected += d
		}
		assert.Equal(rt, expected, r.Total())
	})
}

// TestParse_Forms verifies the supported notation forms.
func TestParse_Forms(t *testing.T) {
	cases := []struct {
		in    string
		count int
		sides int
		mod   int
		kh    int
	}{
		{"d20", 1, 20, 0, 0},
		{"1d20", 1, 20, 0, 0},
		{"2d6+3", 2, 6, 3, 0},
		{"4d8-2", 4, 8, -2, 0},
		{"4d6kh3", 4, 6, 0, 3},
		{"4d6kh3+1", 4, 6, 1, 3},
	}
	for _, tc := range cases {
		e, err := dice.Parse(tc.in)
		require.NoError(t, err, "Parse(%q)", tc.in)
		assert.Equal(t, tc.count, e.Count, "%q count", tc.in)
		assert.Equal(t, tc.sides, e.Sides, "%q sides", tc.in)
		assert.Equal(t, tc.mod, e.Modifier, "%q modifier", tc.in)
		assert.Equal(t, tc.kh, e.KeepHighest, "%q kh", tc.in)
	}
}

// TestParse_Errors verifies malformed notation is rejected.
func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "20", "0d6", "2d1", "2d", "xdy", "4d6kh5"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "Parse(%q) must fail", in)
	}
}

// TestExpression_Doubled verifies the critical-hit rule: dice count doubles,
// flat modifier does not.
func TestExpression_Doubled(t *testing.T) {
	e := dice.MustParse("1d8+3")
	d := e.Doubled()
	assert.Equal(t, 2, d.Count)
	assert.Equal(t, 8, d.Sides)
	assert.Equal(t, 3, d.Modifier, "modifier must not double on crit")
	assert.Equal(t, "2d8+3", d.Raw)
}

// TestRoll_DiceCount verifies the number of dice returned matches the expression.
func TestRoll_DiceCount(t *testing.T) {
	src := dice.NewSeededSource(1)
	r, err := dice.Roll(dice.MustParse("3d6+2"), src)
	require.NoError(t, err)
	assert.Len(t, r.Dice, 3)
	for _, d := range r.Dice {
		assert.GreaterOrEqual(t, d, 1)
		assert.LessOrEqual(t, d, 6)
	}
}

// TestRollD20_Advantage verifies the higher of two dice is kept.
func TestRollD20_Advantage(t *testing.T) {
	// Intn values 4 and 16 produce faces 5 and 17.
	src := dice.NewFixedSource(4, 16)
	r := dice.RollD20(dice.WithAdvantage, 2, src)
	require.Len(t, r.Dice, 1)
	assert.Equal(t, 17, r.Dice[0])
	assert.Equal(t, 19, r.Total())
}

// TestRollD20_Disadvantage verifies the lower of two dice is kept.
func TestRollD20_Disadvantage(t *testing.T) {
	src := dice.NewFixedSource(4, 16)
	r := dice.RollD20(dice.WithDisadvantage, 0, src)
	require.Len(t, r.Dice, 1)
	assert.Equal(t, 5, r.Dice[0])
}

// TestRollD20_Straight verifies exactly one die is consumed.
func TestRollD20_Straight(t *testing.T) {
	src := dice.NewFixedSource(9, 19)
	r1 := dice.RollD20(dice.Straight, 0, src)
	r2 := dice.RollD20(dice.Straight, 0, src)
	assert.Equal(t, 10, r1.Dice[0])
	assert.Equal(t, 20, r2.Dice[0])
}

// TestSeededSource_Deterministic verifies two sources with the same seed
// produce identical sequences.
func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(20), b.Intn(20), "sequence diverged at index %d", i)
	}
}

// TestCryptoSource_Intn_InRange verifies every value is in [0, n).
func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

// TestSources_PanicOnZero verifies the Intn precondition on all sources.
func TestSources_PanicOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
	assert.Panics(t, func() { dice.NewSeededSource(1).Intn(0) })
	assert.Panics(t, func() { dice.NewFixedSource(1).Intn(0) })
}

// TestRoll_Property verifies every rolled die is within [1, Sides] and the
// total matches the audit fields, for arbitrary well-formed expressions.
func TestRoll_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		mod := rapid.IntRange(-5, 10).Draw(rt, "mod")
		seed := rapid.Int64().Draw(rt, "seed")

		expr := dice.Expression{Raw: "prop", Count: count, Sides: sides, Modifier: mod}
		r, err := dice.Roll(expr, dice.NewSeededSource(seed))
		require.NoError(rt, err)
		require.Len(rt, r.Dice, count)

		sum := mod
		for _, d := range r.Dice {
			assert.GreaterOrEqual(rt, d, 1)
			assert.LessOrEqual(rt, d, sides)
			sum += d
		}
		assert.Equal(rt, sum, r.Total())
	})
}
