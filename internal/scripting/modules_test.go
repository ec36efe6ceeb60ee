package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/encounter/internal/game/dice"
	"github.com/cory-johannsen/encounter/internal/scripting"
)

func runScript(t *testing.T, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "test.lua", luaSrc)
	require.NoError(t, mgr.LoadDirectory(dir, 0))
	ret, err := mgr.CallHook(hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_WritesToLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	mgr := scripting.NewManager(roller, logger)

	runScript(t, mgr, `
		function do_log()
			engine.log.info("hello from lua")
		end
	`, "do_log")

	found := false
	for _, e := range logs.All() {
		if e.Level == zap.InfoLevel && e.Message == "hello from lua" {
			found = true
			break
		}
	}
	assert.True(t, found, "expected Info log entry")
}

func TestEngineLog_AllLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	mgr := scripting.NewManager(roller, logger)

	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	levels := map[string]bool{}
	for _, e := range logs.All() {
		levels[e.Level.String()] = true
	}
	assert.True(t, levels["debug"], "expected debug log")
	assert.True(t, levels["info"], "expected info log")
	assert.True(t, levels["warn"], "expected warn log")
	assert.True(t, levels["error"], "expected error log")
}

func TestEngineDice_Roll_ReturnsTable(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function do_roll()
			local r = engine.dice.roll("1d6")
			if type(r.dice) ~= "number" then error("dice field missing") end
			return r.total
		end
	`, "do_roll")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %T", ret)
	assert.GreaterOrEqual(t, int(n), 1)
	assert.LessOrEqual(t, int(n), 6)
}

func TestProperty_DiceRoll_TotalEqualsDicePlusModifier(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.SampledFrom([]string{"1d6", "2d6+3", "1d4", "1d8+1"}).Draw(rt, "expr")
		ret := runScript(t, mgr, `
			function check_invariant(expr)
				local r = engine.dice.roll(expr)
				return r.total == r.dice + r.modifier
			end
		`, "check_invariant", lua.LString(expr))
		assert.Equal(t, lua.LTrue, ret, "total must equal dice + modifier for expr %s", expr)
	})
}

func TestEngineCombat_QueryCombatant_NilCallback_ReturnsNil(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function get_it() return engine.combat.query_combatant("c1") end
	`, "get_it")
	assert.Equal(t, lua.LNil, ret)
}

func TestEngineCombat_QueryCombatant_WithCallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.GetCombatant = func(id string) *scripting.CombatantInfo {
		return &scripting.CombatantInfo{ID: id, Name: "Bob", Side: "monster", HP: 30, MaxHP: 50, AC: 12, Alive: true}
	}
	ret := runScript(t, mgr, `
		function get_it()
			local c = engine.combat.query_combatant("c1")
			return c.name .. ":" .. c.side .. ":" .. tostring(c.hp)
		end
	`, "get_it")
	assert.Equal(t, lua.LString("Bob:monster:30"), ret)
}

func TestEngineCombat_QueryCombatant_Conditions(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.GetCombatant = func(id string) *scripting.CombatantInfo {
		return &scripting.CombatantInfo{ID: id, Conditions: []string{"poisoned", "stunned"}}
	}
	ret := runScript(t, mgr, `
		function get_it()
			local c = engine.combat.query_combatant("c1")
			return #c.conditions .. ":" .. c.conditions[1] .. ":" .. c.conditions[2]
		end
	`, "get_it")
	assert.Equal(t, lua.LString("2:poisoned:stunned"), ret)
}

func wireRoster(mgr *scripting.Manager, roster []*scripting.CombatantInfo) {
	byID := make(map[string]*scripting.CombatantInfo, len(roster))
	for _, c := range roster {
		byID[c.ID] = c
	}
	mgr.GetCombatant = func(id string) *scripting.CombatantInfo { return byID[id] }
	mgr.ListCombatants = func() []*scripting.CombatantInfo { return roster }
}

func TestEngineCombat_Enemies_WithCallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	wireRoster(mgr, []*scripting.CombatantInfo{
		{ID: "m1", Side: "monster", Alive: true},
		{ID: "p1", Name: "Hero", Side: "player", Alive: true},
		{ID: "p2", Side: "player", Alive: false}, // downed, never targeted
	})
	ret := runScript(t, mgr, `
		function get_it()
			local enemies = engine.combat.enemies("m1")
			if enemies == nil then return "nil" end
			return tostring(#enemies) .. ":" .. enemies[1].id
		end
	`, "get_it")
	assert.Equal(t, lua.LString("1:p1"), ret)
}

func TestEngineCombat_Allies_ExcludesSelf(t *testing.T) {
	mgr, _ := newTestManager(t)
	wireRoster(mgr, []*scripting.CombatantInfo{
		{ID: "m1", Side: "monster", Alive: true},
		{ID: "m2", Side: "monster", Alive: true},
		{ID: "p1", Side: "player", Alive: true},
	})
	ret := runScript(t, mgr, `
		function get_it()
			local allies = engine.combat.allies("m1")
			return tostring(#allies) .. ":" .. allies[1].id
		end
	`, "get_it")
	assert.Equal(t, lua.LString("1:m2"), ret)
}

func TestEngineCombat_Enemies_NilCallback_ReturnsNil(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function get_it() return engine.combat.enemies("m1") end
	`, "get_it")
	assert.Equal(t, lua.LNil, ret)
}

func TestProperty_EnemiesPlusAlliesNeverExceedRoster(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mgr, _ := newTestManager(t)
		nMonsters := rapid.IntRange(1, 5).Draw(rt, "monsters")
		nPlayers := rapid.IntRange(0, 5).Draw(rt, "players")

		roster := make([]*scripting.CombatantInfo, 0, nMonsters+nPlayers)
		for i := 0; i < nMonsters; i++ {
			roster = append(roster, &scripting.CombatantInfo{
				ID: "m" + string(rune('0'+i)), Side: "monster", Alive: true,
			})
		}
		for i := 0; i < nPlayers; i++ {
			roster = append(roster, &scripting.CombatantInfo{
				ID: "p" + string(rune('0'+i)), Side: "player", Alive: true,
			})
		}
		wireRoster(mgr, roster)

		ret := runScript(t, mgr, `
			function get_it(id)
				return #engine.combat.enemies(id) + #engine.combat.allies(id)
			end
		`, "get_it", lua.LString("m0"))
		total, ok := ret.(lua.LNumber)
		if !ok {
			rt.Fatalf("expected LNumber, got %T: %v", ret, ret)
		}
		// enemies(nPlayers) + allies(nMonsters-1)
		expected := lua.LNumber(nMonsters + nPlayers - 1)
		if total != expected {
			rt.Fatalf("expected %v, got %v (monsters=%d players=%d)", expected, total, nMonsters, nPlayers)
		}
	})
}
