package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/game/condition"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// DefaultMovementCost is the movement (in feet) consumed by toggling
// position between melee and ranged when no override is configured.
const DefaultMovementCost = 15

// Resolver executes a single requested action against current state. It is
// the only component that mutates combatants during a turn; declined results
// never mutate anything, so a caller may retry with a different action while
// the relevant economy slot is still free.
type Resolver struct {
	roller       *dice.Roller
	logger       *zap.Logger
	conditions   *condition.Registry
	movementCost int
}

// NewResolver creates a Resolver.
//
// Precondition: roller, logger, and conditions must be non-nil;
// movementCost <= 0 selects DefaultMovementCost.
func NewResolver(roller *dice.Roller, logger *zap.Logger, conditions *condition.Registry, movementCost int) *Resolver {
	if movementCost <= 0 {
		movementCost = DefaultMovementCost
	}
	return &Resolver{
		roller:       roller,
		logger:       logger,
		conditions:   conditions,
		movementCost: movementCost,
	}
}

// Context carries the state one resolution needs: the actor, the optional
// target, and the full combatant list (specials such as sneak_attack inspect
// allies).
type Context struct {
	Actor      *Combatant
	Target     *Combatant // nil when the action takes no target
	Combatants []*Combatant
}

// Resolve validates and executes spec for the given context, returning a
// structured result. Validation order: spec known, economy slot free,
// condition restrictions, then per-kind checks (target, range). Any
// violation yields a declined result with a reason code; declined results
// mutate no state. Applied results mark the spent economy slot, decrement
// the spec's use counter, and carry at least one log line.
//
// Precondition: ctx.Actor must be non-nil.
func (r *Resolver) Resolve(ctx Context, spec *ActionSpec) ActionResult {
	actor := ctx.Actor
	targetID := ""
	if ctx.Target != nil {
		targetID = ctx.Target.ID
	}

	if spec == nil || spec.Kind == ActionUnknown {
		name := "?"
		if spec != nil {
			name = spec.Name
		}
		r.logger.Warn("unknown action kind in snapshot data", zap.String("actor", actor.ID), zap.String("action", name))
		return declined(actor, spec, targetID, ReasonUnknownAbility,
			fmt.Sprintf("%s cannot resolve unknown action %q", actor.Name, name))
	}

	if reason, ok := r.checkEconomy(actor, spec); !ok {
		return declined(actor, spec, targetID, reason,
			fmt.Sprintf("%s cannot use %s: %s", actor.Name, spec.Name, reason))
	}

	if condition.IsActionRestricted(actor.Conditions, spec.Kind.String()) {
		return declined(actor, spec, targetID, ReasonRestricted,
			fmt.Sprintf("%s is prevented from using %s by a condition", actor.Name, spec.Name))
	}

	var result ActionResult
	switch spec.Kind {
	case ActionAttack:
		result = r.resolveAttack(ctx, spec)
	case ActionHeal:
		result = r.resolveHeal(ctx, spec)
	case ActionSpecial:
		result = r.resolveSpecial(ctx, spec)
	case ActionMovement:
		result = r.resolveMovement(ctx, spec)
	}

	if result.Declined {
		return result
	}

	r.spend(actor, spec)
	r.logger.Info("action resolved",
		zap.String("actor", actor.ID),
		zap.String("action", spec.Name),
		zap.String("kind", spec.Kind.String()),
		zap.String("target", targetID),
		zap.Bool("success", result.Success),
		zap.Int("damage", result.DamageDealt),
		zap.Int("healing", result.HealingDone),
	)
	return result
}

// checkEconomy verifies the actor's economy slot and the spec's use counter.
func (r *Resolver) checkEconomy(actor *Combatant, spec *ActionSpec) (DeclineReason, bool) {
	switch spec.Cost {
	case CostAction:
		if actor.ActionUsed {
			return ReasonResourceExhausted, false
		}
	case CostBonus:
		if actor.BonusUsed {
			return ReasonResourceExhausted, false
		}
	case CostReaction:
		if actor.ReactionUsed {
			return ReasonResourceExhausted, false
		}
	case CostMovement:
		if actor.MovementRemaining <= 0 {
			return ReasonResourceExhausted, false
		}
	}
	if spec.Exhausted() {
		return ReasonResourceExhausted, false
	}
	return ReasonNone, true
}

// spend marks the economy slot used and decrements the use counter. Called
// only after a resolution applied; movement cost is charged inside
// resolveMovement because it depends on whether the position changed.
func (r *Resolver) spend(actor *Combatant, spec *ActionSpec) {
	switch spec.Cost {
	case CostAction:
		actor.ActionUsed = true
	case CostBonus:
		actor.BonusUsed = true
	case CostReaction:
		actor.ReactionUsed = true
	}
	if spec.UsesRemaining > 0 {
		spec.UsesRemaining--
	}
}

// resolveAttack performs a full attack: 1d20 + attack bonus vs the target's
// effective AC. A natural 20 always hits and is a critical (the damage dice
// count doubles; the flat modifier does not); a natural 1 always misses. A
// miss still consumes the action and produces a result with zero damage.
func (r *Resolver) resolveAttack(ctx Context, spec *ActionSpec) ActionResult {
	actor, target := ctx.Actor, ctx.Target
	if target == nil || !target.IsAlive() {
		return declined(actor, spec, "", ReasonInvalidTarget,
			fmt.Sprintf("%s needs a living target for %s", actor.Name, spec.Name))
	}
	if spec.Reach != "ranged" && actor.Position != PositionMelee {
		return declined(actor, spec, target.ID, ReasonOutOfRange,
			fmt.Sprintf("%s is not in melee range for %s", actor.Name, spec.Name))
	}

	attackMod := spec.AttackBonus + condition.AttackPenalty(actor.Conditions)
	roll := r.roller.RollD20(dice.Straight, attackMod)
	natural := roll.Dice[0]
	total := roll.Total()
	effectiveAC := target.AC + condition.ACPenalty(target.Conditions)

	result := ActionResult{
		Action:      spec.Name,
		Kind:        ActionAttack,
		ActorID:     actor.ID,
		TargetID:    target.ID,
		AttackRoll:  natural,
		AttackTotal: total,
		Critical:    natural == 20,
		Fumble:      natural == 1,
	}
	result.Log = append(result.Log, fmt.Sprintf("%s attacks %s with %s: %d %+d = %d vs AC %d",
		actor.Name, target.Name, spec.Name, natural, attackMod, total, target.AC))

	hit := result.Critical || (!result.Fumble && total >= effectiveAC)
	if !hit {
		if result.Fumble {
			result.Description = fmt.Sprintf("%s fumbles the attack", actor.Name)
			result.Log = append(result.Log, "Critical miss!")
		} else {
			result.Description = fmt.Sprintf("%s misses %s", actor.Name, target.Name)
			result.Log = append(result.Log, "Miss!")
		}
		return result
	}

	expr, err := dice.Parse(spec.DamageDice)
	if err != nil {
		r.logger.Warn("invalid damage dice in snapshot data",
			zap.String("action", spec.Name), zap.String("dice", spec.DamageDice), zap.Error(err))
		return declined(actor, spec, target.ID, ReasonUnknownAbility,
			fmt.Sprintf("%s has malformed damage dice %q", spec.Name, spec.DamageDice))
	}
	if result.Critical {
		expr = expr.Doubled()
		result.Log = append(result.Log, "Critical hit!")
	}
	dmgRoll, err := r.roller.Roll(expr)
	if err != nil {
		r.logger.Warn("damage roll failed",
			zap.String("action", spec.Name), zap.String("dice", spec.DamageDice), zap.Error(err))
		return declined(actor, spec, target.ID, ReasonUnknownAbility,
			fmt.Sprintf("%s has malformed damage dice %q", spec.Name, spec.DamageDice))
	}
	damage := dmgRoll.Total() + spec.DamageBonus
	dealt := target.TakeDamage(damage)

	result.Success = true
	result.DamageDealt = damage
	result.Description = fmt.Sprintf("%s hits %s for %d %s damage", actor.Name, target.Name, damage, spec.DamageType)
	result.Log = append(result.Log, fmt.Sprintf("Hit! %d %+d = %d %s damage",
		dmgRoll.Total()-dmgRoll.Modifier, spec.DamageBonus+dmgRoll.Modifier, damage, spec.DamageType))
	result.Log = append(result.Log, fmt.Sprintf("%s takes %d damage (%d/%d HP)",
		target.Name, dealt, target.CurrentHP, target.MaxHP))

	if !target.IsAlive() {
		if target.IsDead() {
			result.Log = append(result.Log, fmt.Sprintf("%s is slain!", target.Name))
		} else {
			result.Log = append(result.Log, fmt.Sprintf("%s falls unconscious!", target.Name))
			result.ConditionsApplied = append(result.ConditionsApplied, r.applyUnconscious(target)...)
		}
	}
	return result
}

// resolveHeal rolls the healing dice and applies them to the target (or the
// actor when no target is supplied). No attack roll is involved.
func (r *Resolver) resolveHeal(ctx Context, spec *ActionSpec) ActionResult {
	actor := ctx.Actor
	target := ctx.Target
	if target == nil {
		target = actor
	}
	if target.IsDead() {
		return declined(actor, spec, target.ID, ReasonInvalidTarget,
			fmt.Sprintf("%s cannot heal %s: already dead", actor.Name, target.Name))
	}

	healRoll, err := r.roller.RollExpr(spec.HealDice)
	if err != nil {
		r.logger.Warn("invalid healing dice in snapshot data",
			zap.String("action", spec.Name), zap.String("dice", spec.HealDice), zap.Error(err))
		return declined(actor, spec, target.ID, ReasonUnknownAbility,
			fmt.Sprintf("%s has malformed healing dice %q", spec.Name, spec.HealDice))
	}

	wasDown := !target.IsAlive()
	healed := target.Heal(healRoll.Total())

	result := ActionResult{
		Success:     true,
		Action:      spec.Name,
		Kind:        ActionHeal,
		ActorID:     actor.ID,
		TargetID:    target.ID,
		HealingDone: healed,
		Description: fmt.Sprintf("%s heals %s for %d HP", actor.Name, target.Name, healed),
	}
	result.Log = append(result.Log, fmt.Sprintf("%s uses %s: %s heals %d HP (%d/%d HP)",
		actor.Name, spec.Name, target.Name, healed, target.CurrentHP, target.MaxHP))
	if wasDown && target.IsAlive() {
		target.Conditions.Remove("unconscious")
		target.Conditions.Remove("stable")
		result.ConditionsRemoved = append(result.ConditionsRemoved, "unconscious")
		result.Log = append(result.Log, fmt.Sprintf("%s regains consciousness!", target.Name))
	}
	return result
}

// resolveMovement toggles the actor's position between melee and ranged,
// charging the fixed movement cost. Requesting the position the actor is
// already in costs nothing and counts as success.
func (r *Resolver) resolveMovement(ctx Context, spec *ActionSpec) ActionResult {
	actor := ctx.Actor

	// An explicit destination may be supplied via Option ("melee"/"ranged");
	// empty Option means toggle.
	dest := actor.Position.Toggled()
	switch spec.Option {
	case "melee":
		dest = PositionMelee
	case "ranged":
		dest = PositionRanged
	}

	result := ActionResult{
		Success: true,
		Action:  spec.Name,
		Kind:    ActionMovement,
		ActorID: actor.ID,
	}

	if dest == actor.Position {
		result.MovementRemaining = actor.MovementRemaining
		result.Description = fmt.Sprintf("%s holds position (%s)", actor.Name, actor.Position)
		result.Log = append(result.Log, result.Description)
		return result
	}

	actor.Position = dest
	actor.MovementRemaining -= r.movementCost
	if actor.MovementRemaining < 0 {
		actor.MovementRemaining = 0
	}
	result.MovementRemaining = actor.MovementRemaining
	result.Description = fmt.Sprintf("%s moves to %s position", actor.Name, dest)
	result.Log = append(result.Log, fmt.Sprintf("%s moves to %s position (%d ft movement left)",
		actor.Name, dest, actor.MovementRemaining))
	return result
}

// applyUnconscious tags a downed player with the unconscious condition.
func (r *Resolver) applyUnconscious(target *Combatant) []string {
	def, ok := r.conditions.Get("unconscious")
	if !ok {
		return nil
	}
	_ = target.Conditions.Apply(def, 1, -1)
	return []string{"unconscious"}
}
