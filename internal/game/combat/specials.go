package combat

import (
	"fmt"

	"go.uber.org/zap"
)

// Special-ability catalog names. The catalog is fixed: each entry is a named
// rule with its own resolution, and any other name is declined with
// ReasonUnknownAbility so data problems in snapshots surface loudly.
const (
	// SpecialSecondWind recovers HP using a limited resource (1d10 + level).
	SpecialSecondWind = "second_wind"
	// SpecialActionSurge regains the expended action slot this round.
	SpecialActionSurge = "action_surge"
	// SpecialCunningAction grants movement: Option "dash" adds Speed to the
	// movement allowance; Option "disengage" applies the one-turn
	// disengaging condition.
	SpecialCunningAction = "cunning_action"
	// SpecialSneakAttack adds bonus damage dice when the target is engaged
	// in melee with the attacker or one of the attacker's allies.
	SpecialSneakAttack = "sneak_attack"
)

// resolveSpecial dispatches the fixed special-ability catalog. Unknown
// special names produce a declined result, never a silent no-op.
func (r *Resolver) resolveSpecial(ctx Context, spec *ActionSpec) ActionResult {
	switch spec.Special {
	case SpecialSecondWind:
		return r.resolveSecondWind(ctx, spec)
	case SpecialActionSurge:
		return r.resolveActionSurge(ctx, spec)
	case SpecialCunningAction:
		return r.resolveCunningAction(ctx, spec)
	case SpecialSneakAttack:
		return r.resolveSneakAttack(ctx, spec)
	default:
		r.logger.Warn("unknown special ability in snapshot data",
			zap.String("actor", ctx.Actor.ID), zap.String("special", spec.Special))
		targetID := ""
		if ctx.Target != nil {
			targetID = ctx.Target.ID
		}
		return declined(ctx.Actor, spec, targetID, ReasonUnknownAbility,
			fmt.Sprintf("%s attempts unknown ability %q", ctx.Actor.Name, spec.Special))
	}
}

// resolveSecondWind heals the actor 1d10 + level from their own reserves.
func (r *Resolver) resolveSecondWind(ctx Context, spec *ActionSpec) ActionResult {
	actor := ctx.Actor
	expr := fmt.Sprintf("1d10+%d", actor.Level)
	healRoll, err := r.roller.RollExpr(expr)
	if err != nil {
		return declined(actor, spec, "", ReasonUnknownAbility,
			fmt.Sprintf("second wind dice %q failed to parse", expr))
	}
	healed := actor.Heal(healRoll.Total())

	result := ActionResult{
		Success:     true,
		Action:      spec.Name,
		Kind:        ActionSpecial,
		ActorID:     actor.ID,
		HealingDone: healed,
		Description: fmt.Sprintf("%s uses Second Wind and recovers %d HP", actor.Name, healed),
	}
	result.Log = append(result.Log, fmt.Sprintf("%s uses Second Wind: recovers %d HP (%d/%d HP)",
		actor.Name, healed, actor.CurrentHP, actor.MaxHP))
	return result
}

// resolveActionSurge clears the actor's spent action slot, granting an
// additional action this round.
func (r *Resolver) resolveActionSurge(ctx Context, spec *ActionSpec) ActionResult {
	actor := ctx.Actor
	actor.ActionUsed = false

	result := ActionResult{
		Success:     true,
		Action:      spec.Name,
		Kind:        ActionSpecial,
		ActorID:     actor.ID,
		Description: fmt.Sprintf("%s uses Action Surge and regains an action", actor.Name),
	}
	result.Log = append(result.Log, fmt.Sprintf("%s uses Action Surge: gains an extra action!", actor.Name))
	return result
}

// resolveCunningAction grants movement: dash adds Speed to the remaining
// allowance; disengage applies the disengaging condition until end of turn.
func (r *Resolver) resolveCunningAction(ctx Context, spec *ActionSpec) ActionResult {
	actor := ctx.Actor

	result := ActionResult{
		Success: true,
		Action:  spec.Name,
		Kind:    ActionSpecial,
		ActorID: actor.ID,
	}

	switch spec.Option {
	case "", "dash":
		actor.MovementRemaining += actor.Speed
		result.MovementRemaining = actor.MovementRemaining
		result.Description = fmt.Sprintf("%s dashes (%d ft movement)", actor.Name, actor.MovementRemaining)
		result.Log = append(result.Log, fmt.Sprintf("%s uses Cunning Action: Dash (%d ft movement left)",
			actor.Name, actor.MovementRemaining))
	case "disengage":
		if def, ok := r.conditions.Get("disengaging"); ok {
			_ = actor.Conditions.Apply(def, 1, -1)
			result.ConditionsApplied = append(result.ConditionsApplied, "disengaging")
		}
		result.Description = fmt.Sprintf("%s disengages", actor.Name)
		result.Log = append(result.Log, fmt.Sprintf("%s uses Cunning Action: Disengage", actor.Name))
	default:
		return declined(actor, spec, "", ReasonUnknownAbility,
			fmt.Sprintf("%s attempts unknown cunning action %q", actor.Name, spec.Option))
	}
	return result
}

// resolveSneakAttack deals bonus damage dice to a target that is engaged in
// melee with the actor or any of the actor's living allies. The dice scale
// with level: (level+1)/2 d6.
func (r *Resolver) resolveSneakAttack(ctx Context, spec *ActionSpec) ActionResult {
	actor, target := ctx.Actor, ctx.Target
	if target == nil || !target.IsAlive() {
		return declined(actor, spec, "", ReasonInvalidTarget,
			fmt.Sprintf("%s needs a living target for sneak attack", actor.Name))
	}

	engaged := target.Position == PositionMelee
	if !engaged {
		for _, c := range ctx.Combatants {
			if c.ID != actor.ID && c.Side == actor.Side && c.IsAlive() && c.Position == PositionMelee {
				engaged = true
				break
			}
		}
	}
	if !engaged {
		return declined(actor, spec, target.ID, ReasonInvalidTarget,
			fmt.Sprintf("%s has no opening for sneak attack on %s", actor.Name, target.Name))
	}

	diceCount := (actor.Level + 1) / 2
	if diceCount < 1 {
		diceCount = 1
	}
	dmgRoll, err := r.roller.RollExpr(fmt.Sprintf("%dd6", diceCount))
	if err != nil {
		return declined(actor, spec, target.ID, ReasonUnknownAbility, "sneak attack dice failed to parse")
	}
	damage := dmgRoll.Total()
	dealt := target.TakeDamage(damage)

	result := ActionResult{
		Success:     true,
		Action:      spec.Name,
		Kind:        ActionSpecial,
		ActorID:     actor.ID,
		TargetID:    target.ID,
		DamageDealt: damage,
		Description: fmt.Sprintf("%s sneak attacks %s for %d extra damage", actor.Name, target.Name, damage),
	}
	result.Log = append(result.Log, fmt.Sprintf("Sneak Attack! %s deals %d extra damage to %s (%d/%d HP)",
		actor.Name, dealt, target.Name, target.CurrentHP, target.MaxHP))
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
