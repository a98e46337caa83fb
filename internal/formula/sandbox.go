package formula

import (
	lua "github.com/yuin/gopher-lua"
)

// blockedGlobals are removed from every formula VM. Formulas only declare
// data, so anything that reaches the OS, loads more code or bypasses
// metatables goes. string, table and math stay.
var blockedGlobals = []string{
	"os", "io", "debug", "package", "module",
	"require", "dofile", "loadfile", "load", "loadstring",
	"collectgarbage", "rawset", "rawget", "rawequal",
	"setfenv", "getfenv",
}

// newSandboxedVM returns a small Lua state with blockedGlobals removed.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: 256,
		RegistrySize:  8 * 1024,
	})
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
