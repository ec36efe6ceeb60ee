package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
// It is a value copy: scripts observe the encounter, they never mutate it.
type CombatantInfo struct {
	ID         string
	Name       string
	Side       string // "player" or "monster"
	HP         int
	MaxHP      int
	AC         int
	Position   string // "melee" or "ranged"
	Alive      bool
	Conditions []string
}

// Manager owns one sandboxed LState holding every loaded tactic script and
// exposes hook dispatch. The engine.* modules reach back into the encounter
// through the injected callback fields.
//
// Manager is safe for concurrent CallHook after LoadDirectory completes: the
// single LState is serialized behind the mutex.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = the engine.* module returns nil/zero.
	GetCombatant   func(id string) *CombatantInfo
	ListCombatants func() []*CombatantInfo
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting: roller is required")
	}
	if logger == nil {
		panic("scripting: logger is required")
	}
	return &Manager{
		roller: roller,
		logger: logger,
	}
}

// LoadDirectory creates a sandboxed VM, registers all engine.* modules, then
// executes every *.lua file in scriptDir in lexicographic order. Reloading
// replaces the previous VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: the VM is registered; returns an error on Lua load failure.
func (m *Manager) LoadDirectory(scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.mu.Unlock()
	return nil
}

// Close releases the VM. Safe to call on a Manager that never loaded scripts.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
		m.state = nil
	}
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if the
// hook is not defined or no scripts are loaded. Lua runtime errors are logged
// at Warn level and never propagated: a broken script must not crash an
// encounter.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		m.logger.Info("scripting: no scripts loaded", zap.String("hook", hook))
		return lua.LNil, nil
	}

	fn := m.state.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := m.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := m.state.Get(-1)
	m.state.Pop(1)
	return ret, nil
}
