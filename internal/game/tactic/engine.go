// Package tactic decides monster actions. Each monster carries a tactic
// name; the engine turns that name plus the current encounter state into the
// next submission for the session (or an explicit pass that ends the turn).
package tactic

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/scripting"
)

// ScriptedPrefix marks a tactic resolved by a Lua hook: "scripted:<hook>"
// calls the global function <hook> in the loaded tactic scripts.
const ScriptedPrefix = "scripted:"

// Decision is one step of a monster's turn. The driver submits Action (a
// name for Session.SubmitNamed) against TargetID and calls Decide again
// until Pass is set, then ends the turn.
type Decision struct {
	Action   string
	TargetID string
	Pass     bool
}

// Engine maps tactic names to decisions. The zero tactic and any unknown
// name behave as basic_melee, so data problems degrade to a sensible default
// instead of a stalled encounter.
type Engine struct {
	scripts *scripting.Manager // nil when no scripted tactics are loaded
	logger  *zap.Logger
}

// NewEngine creates an Engine. scripts may be nil; scripted tactics then
// fall back to basic_melee.
//
// Precondition: logger must be non-nil.
func NewEngine(scripts *scripting.Manager, logger *zap.Logger) *Engine {
	return &Engine{scripts: scripts, logger: logger}
}

// Decide chooses the actor's next step given the full roster.
//
// Postcondition: Returns a Decision with either Pass set or a non-empty
// Action; Decide never mutates any combatant.
func (e *Engine) Decide(actor *combat.Combatant, combatants []*combat.Combatant) Decision {
	tactic := actor.Tactic

	if strings.HasPrefix(tactic, ScriptedPrefix) {
		if d, ok := e.decideScripted(strings.TrimPrefix(tactic, ScriptedPrefix), actor, combatants); ok {
			return d
		}
		return e.basicMelee(actor, combatants)
	}

	switch tactic {
	case "", "basic_melee":
		return e.basicMelee(actor, combatants)
	case "control_first":
		return e.controlFirst(actor, combatants)
	default:
		e.logger.Debug("unknown tactic, using basic_melee",
			zap.String("combatant", actor.ID),
			zap.String("tactic", tactic),
		)
		return e.basicMelee(actor, combatants)
	}
}

// basicMelee closes to melee range, then uses the first available offensive
// action against the first living opponent.
func (e *Engine) basicMelee(actor *combat.Combatant, combatants []*combat.Combatant) Decision {
	enemies := livingOpponents(actor, combatants)
	if len(enemies) == 0 {
		return Decision{Pass: true}
	}
	target := enemies[0]

	// Close to melee before anything else; the attack comes on the next
	// decision once the approach has resolved.
	if actor.Position != combat.PositionMelee && actor.MovementRemaining > 0 {
		return Decision{Action: "move:melee"}
	}

	if !actor.ActionUsed {
		// Movement may be spent (or the approach declined); ranged attacks
		// still work from the back line.
		if spec := firstUsableAttack(actor, actor.Position == combat.PositionMelee); spec != nil {
			return Decision{Action: spec.Name, TargetID: target.ID}
		}
	}
	return Decision{Pass: true}
}

// controlFirst opens with the first unused special that requires a target,
// then falls back to basic melee behavior.
func (e *Engine) controlFirst(actor *combat.Combatant, combatants []*combat.Combatant) Decision {
	enemies := livingOpponents(actor, combatants)
	if len(enemies) == 0 {
		return Decision{Pass: true}
	}

	for _, spec := range actor.Actions {
		if spec.Kind != combat.ActionSpecial || !spec.RequiresTarget || spec.Exhausted() {
			continue
		}
		if !costFree(actor, spec.Cost) {
			continue
		}
		return Decision{Action: spec.Name, TargetID: enemies[0].ID}
	}
	return e.basicMelee(actor, combatants)
}

// decideScripted calls the named Lua hook with the actor's id. The hook
// returns a table with "action" and optional "target" fields, or "pass" set
// true. Any error, nil return, or malformed table reports ok=false so the
// caller can fall back.
func (e *Engine) decideScripted(hook string, actor *combat.Combatant, combatants []*combat.Combatant) (Decision, bool) {
	if e.scripts == nil {
		return Decision{}, false
	}
	e.wireRoster(combatants)

	ret, err := e.scripts.CallHook(hook, lua.LString(actor.ID))
	if err != nil || ret == lua.LNil {
		return Decision{}, false
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		e.logger.Warn("scripted tactic returned a non-table value",
			zap.String("combatant", actor.ID),
			zap.String("hook", hook),
		)
		return Decision{}, false
	}

	if lua.LVAsBool(tbl.RawGetString("pass")) {
		return Decision{Pass: true}, true
	}
	action := lua.LVAsString(tbl.RawGetString("action"))
	if action == "" {
		return Decision{}, false
	}
	return Decision{
		Action:   action,
		TargetID: lua.LVAsString(tbl.RawGetString("target")),
	}, true
}

// wireRoster points the script manager's callbacks at the current roster so
// engine.combat.* reflects this encounter during the hook call.
func (e *Engine) wireRoster(combatants []*combat.Combatant) {
	byID := make(map[string]*combat.Combatant, len(combatants))
	for _, c := range combatants {
		byID[c.ID] = c
	}
	e.scripts.GetCombatant = func(id string) *scripting.CombatantInfo {
		c, ok := byID[id]
		if !ok {
			return nil
		}
		return toInfo(c)
	}
	e.scripts.ListCombatants = func() []*scripting.CombatantInfo {
		out := make([]*scripting.CombatantInfo, len(combatants))
		for i, c := range combatants {
			out[i] = toInfo(c)
		}
		return out
	}
}

func toInfo(c *combat.Combatant) *scripting.CombatantInfo {
	return &scripting.CombatantInfo{
		ID:         c.ID,
		Name:       c.Name,
		Side:       c.Side.String(),
		HP:         c.CurrentHP,
		MaxHP:      c.MaxHP,
		AC:         c.AC,
		Position:   c.Position.String(),
		Alive:      c.IsAlive(),
		Conditions: c.Conditions.IDs(),
	}
}

// livingOpponents returns the living combatants on the other side, in roster
// order.
func livingOpponents(actor *combat.Combatant, combatants []*combat.Combatant) []*combat.Combatant {
	var out []*combat.Combatant
	for _, c := range combatants {
		if c.Side != actor.Side && c.IsAlive() {
			out = append(out, c)
		}
	}
	return out
}

// firstUsableAttack returns the first non-exhausted attack in the actor's
// bag that is in range: ranged attacks always, melee attacks only when
// inMelee is true.
func firstUsableAttack(actor *combat.Combatant, inMelee bool) *combat.ActionSpec {
	for _, spec := range actor.Actions {
		if spec.Kind != combat.ActionAttack || spec.Exhausted() {
			continue
		}
		if spec.Reach != "ranged" && !inMelee {
			continue
		}
		return spec
	}
	return nil
}

// costFree reports whether the economy slot for the given cost is still
// available this turn.
func costFree(actor *combat.Combatant, cost combat.CostType) bool {
	switch cost {
	case combat.CostAction:
		return !actor.ActionUsed
	case combat.CostBonus:
		return !actor.BonusUsed
	case combat.CostReaction:
		return !actor.ReactionUsed
	case combat.CostMovement:
		return actor.MovementRemaining > 0
	default:
		return false
	}
}
