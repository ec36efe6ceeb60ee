package combat

// ActionKind identifies what an action does when resolved. The set is
// closed: the resolver dispatches exhaustively over these four kinds and an
// unrecognised value is declined, never silently ignored.
type ActionKind int

const (
	ActionUnknown  ActionKind = iota // zero value; intentionally invalid
	ActionAttack                     // attack roll vs AC, then damage
	ActionHeal                       // healing dice, no attack roll
	ActionSpecial                    // named catalog ability (see specials.go)
	ActionMovement                   // toggle melee/ranged position
)

// String returns the human-readable kind name.
func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionHeal:
		return "heal"
	case ActionSpecial:
		return "special"
	case ActionMovement:
		return "movement"
	default:
		return "unknown"
	}
}

// kindFromString maps a snapshot-provider kind string to an ActionKind.
// Unrecognised strings map to ActionUnknown, which the resolver declines.
func kindFromString(s string) ActionKind {
	switch s {
	case "attack":
		return ActionAttack
	case "heal":
		return ActionHeal
	case "special":
		return ActionSpecial
	case "movement":
		return ActionMovement
	default:
		return ActionUnknown
	}
}

// CostType identifies which action-economy slot an action spends.
type CostType int

const (
	CostAction CostType = iota
	CostBonus
	CostReaction
	CostMovement
)

// String returns the economy slot name.
func (t CostType) String() string {
	switch t {
	case CostAction:
		return "action"
	case CostBonus:
		return "bonus_action"
	case CostReaction:
		return "reaction"
	case CostMovement:
		return "movement"
	default:
		return "unknown"
	}
}

// costFromString maps a snapshot-provider cost string to a CostType.
// Empty defaults to the main action slot.
func costFromString(s string) CostType {
	switch s {
	case "", "action":
		return CostAction
	case "bonus_action":
		return CostBonus
	case "reaction":
		return CostReaction
	case "movement":
		return CostMovement
	default:
		return CostAction
	}
}

// UnlimitedUses marks an ActionSpec with no per-encounter use counter.
const UnlimitedUses = -1

// ActionSpec describes one named ability a combatant can use: its kind, the
// economy slot it spends, its dice, and an optional per-encounter use
// counter. Specs are per-combatant copies; UsesRemaining is mutated as the
// encounter runs.
type ActionSpec struct {
	Name string
	Kind ActionKind
	Cost CostType

	// Attack fields.
	AttackBonus int
	DamageDice  string // e.g. "1d8"
	DamageBonus int    // flat modifier, never doubled on a crit
	DamageType  string // e.g. "slashing"; informational
	Reach       string // "melee" or "ranged"; melee attacks require melee position

	// Heal fields.
	HealDice string // e.g. "2d4+2"

	// Special fields.
	Special string // catalog name, e.g. "second_wind"
	Option  string // catalog sub-option, e.g. "dash" for cunning_action

	RequiresTarget bool

	// UsesRemaining counts per-encounter uses; UnlimitedUses means no limit.
	UsesRemaining int
}

// Exhausted reports whether the spec's use counter has run out.
func (a *ActionSpec) Exhausted() bool {
	return a.UsesRemaining == 0
}

// MoveAction returns the built-in movement action: toggle between melee and
// ranged position, spending movement allowance.
func MoveAction() *ActionSpec {
	return &ActionSpec{
		Name:          "move",
		Kind:          ActionMovement,
		Cost:          CostMovement,
		UsesRemaining: UnlimitedUses,
	}
}

// ActionDef is the serialized form of an ActionSpec as it appears in monster
// templates and character sheets. Kind and Cost are the string names; an
// absent uses field means the action is unlimited.
type ActionDef struct {
	Name           string `yaml:"name" json:"name"`
	Kind           string `yaml:"kind" json:"kind"`
	Cost           string `yaml:"cost,omitempty" json:"cost,omitempty"`
	AttackBonus    int    `yaml:"attack_bonus,omitempty" json:"attack_bonus,omitempty"`
	DamageDice     string `yaml:"damage_dice,omitempty" json:"damage_dice,omitempty"`
	DamageBonus    int    `yaml:"damage_bonus,omitempty" json:"damage_bonus,omitempty"`
	DamageType     string `yaml:"damage_type,omitempty" json:"damage_type,omitempty"`
	Reach          string `yaml:"reach,omitempty" json:"reach,omitempty"`
	HealDice       string `yaml:"heal_dice,omitempty" json:"heal_dice,omitempty"`
	Special        string `yaml:"special,omitempty" json:"special,omitempty"`
	Option         string `yaml:"option,omitempty" json:"option,omitempty"`
	RequiresTarget bool   `yaml:"requires_target,omitempty" json:"requires_target,omitempty"`
	Uses           *int   `yaml:"uses,omitempty" json:"uses,omitempty"`
}

// Spec builds a fresh per-combatant ActionSpec from the definition.
//
// Postcondition: Returns a new ActionSpec on every call; mutating one
// combatant's copy never affects another's.
func (d ActionDef) Spec() *ActionSpec {
	uses := UnlimitedUses
	if d.Uses != nil {
		uses = *d.Uses
	}
	return &ActionSpec{
		Name:           d.Name,
		Kind:           kindFromString(d.Kind),
		Cost:           costFromString(d.Cost),
		AttackBonus:    d.AttackBonus,
		DamageDice:     d.DamageDice,
		DamageBonus:    d.DamageBonus,
		DamageType:     d.DamageType,
		Reach:          d.Reach,
		HealDice:       d.HealDice,
		Special:        d.Special,
		Option:         d.Option,
		RequiresTarget: d.RequiresTarget,
		UsesRemaining:  uses,
	}
}

// DeclineReason classifies why an action was declined without mutating any
// state. Reasons are stable strings so callers can branch and log on them.
type DeclineReason string

const (
	// ReasonNone is the zero reason carried by applied (non-declined) results.
	ReasonNone DeclineReason = ""
	// ReasonNotYourTurn: the acting combatant is not the current actor.
	ReasonNotYourTurn DeclineReason = "not_your_turn"
	// ReasonResourceExhausted: the economy slot or use counter is spent.
	ReasonResourceExhausted DeclineReason = "resource_exhausted"
	// ReasonInvalidTarget: the target is missing where required, unknown, or dead.
	ReasonInvalidTarget DeclineReason = "invalid_target"
	// ReasonOutOfRange: a melee attack was attempted from ranged position.
	ReasonOutOfRange DeclineReason = "out_of_range"
	// ReasonUnknownAbility: the action or special name is not recognised;
	// a data-quality problem in the snapshot, surfaced distinctly.
	ReasonUnknownAbility DeclineReason = "unknown_ability"
	// ReasonRestricted: an active condition blocks this action kind.
	ReasonRestricted DeclineReason = "restricted"
	// ReasonCombatOver: the session has already reached victory or defeat.
	ReasonCombatOver DeclineReason = "combat_over"
)

// ActionResult is the structured outcome of one resolved (or declined)
// action. It is returned to the caller per action and never persisted.
type ActionResult struct {
	// Success is true when the action applied and had its intended effect
	// (an attack that missed is applied but not successful).
	Success bool
	// Declined is true when the action was rejected before touching any
	// state; Reason then carries the cause.
	Declined bool
	Reason   DeclineReason

	Action  string
	Kind    ActionKind
	ActorID string
	// TargetID is empty for untargeted actions.
	TargetID string

	// Attack fields: the natural die, the modified total, and the flags.
	AttackRoll  int
	AttackTotal int
	Critical    bool
	Fumble      bool

	DamageDealt int
	HealingDone int

	ConditionsApplied []string
	ConditionsRemoved []string

	// MovementRemaining echoes the actor's allowance after a movement action.
	MovementRemaining int

	// Description is the rendered one-line summary of the outcome.
	Description string
	// Log holds the human-readable lines the session appends to its combat log.
	Log []string
}

// declined builds a no-mutation result for the given reason.
func declined(actor *Combatant, spec *ActionSpec, targetID string, reason DeclineReason, description string) ActionResult {
	r := ActionResult{
		Declined:    true,
		Reason:      reason,
		ActorID:     actor.ID,
		TargetID:    targetID,
		Description: description,
	}
	if spec != nil {
		r.Action = spec.Name
		r.Kind = spec.Kind
	}
	return r
}
