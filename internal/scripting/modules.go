package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug/info/warn/error(msg)
//	engine.dice.roll(expr) -> { total, dice, modifier }
//	engine.combat.query_combatant(id) -> table or nil
//	engine.combat.enemies(id) / engine.combat.allies(id) -> array of tables
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: the engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	L.SetField(engine, "log", m.registerLog(L))
	L.SetField(engine, "dice", m.registerDice(L))
	L.SetField(engine, "combat", m.registerCombat(L))
}

func (m *Manager) registerLog(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, log := range levels {
		log := log
		L.SetField(tbl, name, L.NewFunction(func(L *lua.LState) int {
			log(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return tbl
}

func (m *Manager) registerDice(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "roll", L.NewFunction(func(L *lua.LState) int {
		expr := L.CheckString(1)
		roll, err := m.roller.RollExpr(expr)
		if err != nil {
			L.RaiseError("dice.roll: %v", err)
			return 0
		}
		out := L.NewTable()
		L.SetField(out, "total", lua.LNumber(roll.Total()))
		L.SetField(out, "dice", lua.LNumber(roll.Total()-roll.Modifier))
		L.SetField(out, "modifier", lua.LNumber(roll.Modifier))
		L.Push(out)
		return 1
	}))
	return tbl
}

func (m *Manager) registerCombat(L *lua.LState) *lua.LTable {
	tbl := L.NewTable()

	L.SetField(tbl, "query_combatant", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.GetCombatant == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.GetCombatant(id)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(combatantToTable(L, info))
		return 1
	}))

	L.SetField(tbl, "enemies", L.NewFunction(func(L *lua.LState) int {
		L.Push(m.sideFilter(L, L.CheckString(1), false))
		return 1
	}))

	L.SetField(tbl, "allies", L.NewFunction(func(L *lua.LState) int {
		L.Push(m.sideFilter(L, L.CheckString(1), true))
		return 1
	}))

	return tbl
}

// sideFilter returns the living combatants on the same (sameSide) or the
// opposite side of the combatant with the given id, excluding that combatant
// itself, as a Lua array. Returns LNil when the callbacks are not wired or
// the id is unknown.
func (m *Manager) sideFilter(L *lua.LState, id string, sameSide bool) lua.LValue {
	if m.GetCombatant == nil || m.ListCombatants == nil {
		return lua.LNil
	}
	self := m.GetCombatant(id)
	if self == nil {
		return lua.LNil
	}

	out := L.NewTable()
	for _, c := range m.ListCombatants() {
		if c.ID == id || !c.Alive {
			continue
		}
		if (c.Side == self.Side) != sameSide {
			continue
		}
		out.Append(combatantToTable(L, c))
	}
	return out
}

func combatantToTable(L *lua.LState, info *CombatantInfo) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "id", lua.LString(info.ID))
	L.SetField(tbl, "name", lua.LString(info.Name))
	L.SetField(tbl, "side", lua.LString(info.Side))
	L.SetField(tbl, "hp", lua.LNumber(info.HP))
	L.SetField(tbl, "max_hp", lua.LNumber(info.MaxHP))
	L.SetField(tbl, "ac", lua.LNumber(info.AC))
	L.SetField(tbl, "position", lua.LString(info.Position))
	L.SetField(tbl, "alive", lua.LBool(info.Alive))
	conds := L.NewTable()
	for _, id := range info.Conditions {
		conds.Append(lua.LString(id))
	}
	L.SetField(tbl, "conditions", conds)
	return tbl
}
