package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/altai/internal/game/civ"
	"github.com/cory-johannsen/altai/internal/game/output"
	"github.com/cory-johannsen/altai/internal/game/tactics"
	"github.com/cory-johannsen/altai/internal/scripting"
)

var _ tactics.WeightHook = (*scripting.Manager)(nil)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(zap.New(core))
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func hasLevel(logs *observer.ObservedLogs, level zapcore.Level) bool {
	for _, e := range logs.All() {
		if e.Level == level {
			return true
		}
	}
	return false
}

func TestManager_LoadPlayer_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function test_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadPlayer(1, dir, 0))
	ret, err := mgr.CallHook(1, "test_hook", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "empty.lua", `-- no functions`)
	require.NoError(t, mgr.LoadPlayer(1, dir, 0))
	ret, err := mgr.CallHook(1, "nonexistent_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_UnknownPlayer_LogsInfoReturnsNil(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret, err := mgr.CallHook(9, "some_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zapcore.InfoLevel), "expected Info log for missing VM")
}

func TestManager_CallHook_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `
		function bad_hook()
			error("intentional error")
		end
	`)
	require.NoError(t, mgr.LoadPlayer(1, dir, 0))
	ret, err := mgr.CallHook(1, "bad_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zapcore.WarnLevel), "expected Warn log for Lua runtime error")
}

func TestManager_LoadGlobal_CallHookFallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "global.lua", `
		function global_hook()
			return 42
		end
	`)
	require.NoError(t, mgr.LoadGlobal(dir, 0))
	ret, err := mgr.CallHook(4, "global_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(42), ret)
}

func TestManager_LoadPlayer_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `this is not valid lua @@@@`)
	assert.Error(t, mgr.LoadPlayer(1, dir, 0))
}

func TestManager_LoadPlayer_MissingDir_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.LoadPlayer(1, filepath.Join(t.TempDir(), "missing"), 0))
}

func TestManager_LoadPlayer_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0644))
	require.NoError(t, mgr.LoadPlayer(1, dir, 0))
	ret, err := mgr.CallHook(1, "get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_InstructionLimitIsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "loop.lua", `
		function small_loop()
			local s = 0
			for i = 1, 20 do s = s + i end
			return s
		end
		function spin()
			while true do end
		end
	`)
	require.NoError(t, mgr.LoadPlayer(1, dir, 200))

	for i := 0; i < 10; i++ {
		ret, err := mgr.CallHook(1, "small_loop")
		require.NoError(t, err)
		require.Equal(t, lua.LNumber(210), ret, "call %d", i)
	}

	ret, err := mgr.CallHook(1, "spin")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)

	ret, err = mgr.CallHook(1, "small_loop")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(210), ret, "a runaway hook does not poison later calls")
}

func TestManager_LoadDir(t *testing.T) {
	mgr, _ := newTestManager(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "global.lua"), []byte(`function who() return "global" end`), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "2"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2", "p.lua"), []byte(`function who() return "two" end`), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "notes"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes", "x.lua"), []byte(`this is not lua`), 0644))

	require.NoError(t, mgr.LoadDir(root, 0))

	ret, err := mgr.CallHook(2, "who")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("two"), ret)
	ret, err = mgr.CallHook(5, "who")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("global"), ret)
}

func TestManager_Close_ReleasesVMs(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "init.lua", `function get_x() return 1 end`)
	require.NoError(t, mgr.LoadPlayer(1, dir, 0))
	mgr.Close()
	ret, err := mgr.CallHook(1, "get_x")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestNewManager_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { scripting.NewManager(nil) })
}

func TestOutputWeights_TableOverridesDefaults(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "weights.lua", `
		function output_weights(player, turn, at_war)
			if at_war then
				return { production = 8 }
			end
			return { gold = 10 }
		end
	`)
	require.NoError(t, mgr.LoadPlayer(1, dir, 0))

	w, ok, err := mgr.OutputWeights(1, 12, false)
	require.NoError(t, err)
	require.True(t, ok)
	want := output.DefaultWeights
	want[output.Gold] = 10
	assert.Equal(t, want, w)

	w, ok, err = mgr.OutputWeights(1, 12, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8.0, w[output.Production])
	assert.Equal(t, output.DefaultWeights[output.Gold], w[output.Gold])
}

func TestOutputWeights_ModuleDefaults(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "weights.lua", `
		function output_weights(player, turn, at_war)
			local w = {}
			for _, name in ipairs(altai.categories) do
				w[name] = altai.default_weights[name] * 2
			end
			return w
		end
	`)
	require.NoError(t, mgr.LoadGlobal(dir, 0))

	w, ok, err := mgr.OutputWeights(3, 1, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, output.DefaultWeights.Scale(2), w)
}

func TestOutputWeights_NilKeepsConfigured(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "weights.lua", `function output_weights() return nil end`)
	require.NoError(t, mgr.LoadPlayer(1, dir, 0))

	_, ok, err := mgr.OutputWeights(1, 1, false)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = mgr.OutputWeights(2, 1, false)
	require.NoError(t, err)
	assert.False(t, ok, "no VM for player 2")
}

func TestOutputWeights_BadResults(t *testing.T) {
	cases := map[string]string{
		"number":        `function output_weights() return 4 end`,
		"string weight": `function output_weights() return { gold = "lots" } end`,
		"array":         `function output_weights() return { 1, 2 } end`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			mgr, _ := newTestManager(t)
			require.NoError(t, mgr.LoadPlayer(1, writeTempLua(t, "w.lua", src), 0))
			_, ok, err := mgr.OutputWeights(1, 1, false)
			assert.ErrorIs(t, err, scripting.ErrBadHookResult)
			assert.False(t, ok)
		})
	}
}

func TestOutputWeights_UnknownCategoryAndRuntimeError(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadPlayer(1, writeTempLua(t, "w.lua", `function output_weights() return { faith = 3 } end`), 0))
	_, ok, err := mgr.OutputWeights(1, 1, false)
	assert.Error(t, err)
	assert.False(t, ok)

	require.NoError(t, mgr.LoadPlayer(1, writeTempLua(t, "w.lua", `function output_weights() error("boom") end`), 0))
	_, ok, err = mgr.OutputWeights(1, 1, false)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestModules_LogAndCategories(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "m.lua", `
		function probe()
			altai.log("warn", "hello from lua")
			return #altai.categories
		end
	`)
	require.NoError(t, mgr.LoadPlayer(1, dir, 0))
	ret, err := mgr.CallHook(1, "probe")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(output.NumCategories), ret)

	entries := logs.FilterMessage("hello from lua").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "lua", entries[0].ContextMap()["source"])
}

func TestProperty_CallHookMissingPlayerNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		player := civ.PlayerID(rapid.IntRange(-5, 50).Draw(rt, "player"))
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		_, _ = mgr.CallHook(player, hook)
	})
}

func TestProperty_CallHookConcurrentSamePlayer_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function concurrent_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadPlayer(1, dir, 0))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.CallHook(1, "concurrent_hook", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}
