package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/altai/internal/game/output"
)

// RegisterModules registers the altai Lua table into L:
//
//	altai.log(level, msg)    writes msg to the manager's logger
//	altai.categories         output category names in vector order
//	altai.default_weights    category name -> default weight
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: the altai global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "log", L.NewFunction(m.luaLog))

	cats := L.NewTable()
	defaults := L.NewTable()
	for _, c := range output.AllCategories() {
		cats.Append(lua.LString(c.String()))
		L.SetField(defaults, c.String(), lua.LNumber(output.DefaultWeights[c]))
	}
	L.SetField(mod, "categories", cats)
	L.SetField(mod, "default_weights", defaults)

	L.SetGlobal("altai", mod)
}

// luaLog implements altai.log(level, msg). Unknown levels log at info.
func (m *Manager) luaLog(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)
	logger := m.logger.With(zap.String("source", "lua"))
	switch level {
	case "debug":
		logger.Debug(msg)
	case "warn":
		logger.Warn(msg)
	case "error":
		logger.Error(msg)
	default:
		logger.Info(msg)
	}
	return 0
}
