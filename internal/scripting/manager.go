package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
)

// WeightsHook is the Lua global consulted by OutputWeights.
const WeightsHook = "output_weights"

// ErrBadHookResult is returned when a hook yields a value of the wrong shape.
var ErrBadHookResult = errors.New("scripting: bad hook result")

// vm is one sandboxed LState. An LState is single-threaded; mu serializes
// every execution on it.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	cancel func()
	limit  int
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
	v.L.Close()
}

// Manager owns one sandboxed LState per scripted player plus an optional
// global LState consulted for players without their own scripts.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	players map[civ.PlayerID]*vm
	global  *vm
	logger  *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs loaded.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		players: make(map[civ.PlayerID]*vm),
		logger:  logger,
	}
}

// LoadPlayer creates a sandboxed VM for player, registers the altai module,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: the player's VM replaces any previous one; returns an error
// on Lua load failure and leaves the previous VM in place.
func (m *Manager) LoadPlayer(player civ.PlayerID, scriptDir string, instLimit int) error {
	v, err := m.load(fmt.Sprintf("player %d", player), scriptDir, instLimit)
	if err != nil {
		return err
	}
	m.mu.Lock()
	old := m.players[player]
	m.players[player] = v
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

// LoadGlobal creates the shared VM used as the CallHook fallback for every
// player without a VM of its own.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: the global VM is replaced; returns an error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	v, err := m.load("global", scriptDir, instLimit)
	if err != nil {
		return err
	}
	m.mu.Lock()
	old := m.global
	m.global = v
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

// LoadDir loads a script tree: *.lua files directly under root form the
// global VM, and every subdirectory named by a player id forms that player's
// VM. Other subdirectories are ignored.
//
// Precondition: root must be a readable directory.
// Postcondition: returns the first load error encountered.
func (m *Manager) LoadDir(root string, instLimit int) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("scripting.Manager.LoadDir: %w", err)
	}
	hasGlobal := false
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			hasGlobal = true
			break
		}
	}
	if hasGlobal {
		if err := m.LoadGlobal(root, instLimit); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.Atoi(e.Name())
		if err != nil {
			m.logger.Debug("scripting: skipping non-player script dir", zap.String("dir", e.Name()))
			continue
		}
		if err := m.LoadPlayer(civ.PlayerID(id), filepath.Join(root, e.Name()), instLimit); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) load(label, scriptDir string, instLimit int) (*vm, error) {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q for %s: %w", scriptDir, label, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return nil, fmt.Errorf("scripting: loading %q for %s: %w", path, label, err)
		}
	}
	return &vm{L: L, cancel: cancel, limit: instLimit}, nil
}

func (m *Manager) vmFor(player civ.PlayerID) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.players[player]; ok {
		return v
	}
	return m.global
}

// call runs hook in v with a fresh instruction budget.
//
// Postcondition: returns (LNil, nil) when the hook is not defined.
func (v *vm) call(hook string, args ...lua.LValue) (lua.LValue, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = arm(v.L, v.limit)

	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, err
	}
	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// CallHook calls the named Lua global function in player's VM, falling back
// to the global VM. Returns (LNil, nil) if the hook is not defined or no VM
// exists. Lua runtime errors are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(player civ.PlayerID, hook string, args ...lua.LValue) (lua.LValue, error) {
	v := m.vmFor(player)
	if v == nil {
		m.logger.Info("scripting: no VM for player",
			zap.Int("player", int(player)),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}
	ret, err := v.call(hook, args...)
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.Int("player", int(player)),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// OutputWeights calls output_weights(player, turn, at_war). A returned table
// maps category names to weights; categories it omits keep their default
// weight. A nil return keeps the configured value function.
//
// Postcondition: returns an error on Lua runtime failure, on a non-table
// result and on unknown category names or non-numeric weights.
func (m *Manager) OutputWeights(player civ.PlayerID, turn int, atWar bool) (output.Weights, bool, error) {
	v := m.vmFor(player)
	if v == nil {
		return output.Weights{}, false, nil
	}
	ret, err := v.call(WeightsHook, lua.LNumber(player), lua.LNumber(turn), lua.LBool(atWar))
	if err != nil {
		return output.Weights{}, false, fmt.Errorf("scripting.Manager.OutputWeights: %w", err)
	}
	if ret == lua.LNil {
		return output.Weights{}, false, nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return output.Weights{}, false, fmt.Errorf("scripting.Manager.OutputWeights: got %s: %w", ret.Type(), ErrBadHookResult)
	}
	named, err := tableToWeights(tbl)
	if err != nil {
		return output.Weights{}, false, fmt.Errorf("scripting.Manager.OutputWeights: %w", err)
	}
	w, err := output.WeightsFromMap(output.DefaultWeights, named)
	if err != nil {
		return output.Weights{}, false, fmt.Errorf("scripting.Manager.OutputWeights: %w", err)
	}
	return w, true, nil
}

func tableToWeights(tbl *lua.LTable) (map[string]float64, error) {
	named := make(map[string]float64)
	var bad error
	tbl.ForEach(func(k, val lua.LValue) {
		if bad != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			bad = fmt.Errorf("key %s: %w", k.String(), ErrBadHookResult)
			return
		}
		n, ok := val.(lua.LNumber)
		if !ok {
			bad = fmt.Errorf("weight %q is %s: %w", string(key), val.Type(), ErrBadHookResult)
			return
		}
		named[string(key)] = float64(n)
	})
	return named, bad
}

// Close releases every VM. Hooks called afterwards behave as if no scripts
// were loaded.
func (m *Manager) Close() {
	m.mu.Lock()
	players, global := m.players, m.global
	m.players = make(map[civ.PlayerID]*vm)
	m.global = nil
	m.mu.Unlock()

	for _, v := range players {
		v.close()
	}
	if global != nil {
		global.close()
	}
}
