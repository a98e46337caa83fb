package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable sets the read-only global `platform` in L so formula
// code can branch on the host. Call it before running any formula chunk.
//
// Besides the raw detection values the table exposes the formula
// vocabulary (family, cpu, key) and the is_* predicates, plus
// when(cond, value) which yields value or nil.
func InjectPlatformTable(L *lua.LState, info *Info) error {
	key := info.Key()
	t := L.NewTable()

	for name, v := range map[string]lua.LValue{
		"os":               lua.LString(info.OS),
		"arch":             lua.LString(info.Arch),
		"arch_raw":         lua.LString(info.ArchRaw),
		"family":           lua.LString(key.Family),
		"cpu":              lua.LString(key.Arch),
		"key":              lua.LString(key.String()),
		"is_mac":           lua.LBool(key.Family == FamilyMac),
		"is_linux":         lua.LBool(key.Family == FamilyLinux),
		"is_windows":       lua.LBool(info.IsWindows()),
		"is_arm":           lua.LBool(key.Arch == ArchARM64),
		"is_intel":         lua.LBool(key.Arch == ArchIntel),
		"is_apple_silicon": lua.LBool(info.IsAppleSilicon()),
		"distro":           distroValue(L, info),
		"when":             L.NewFunction(luaWhen),
	} {
		t.RawSetString(name, v)
	}

	L.SetGlobal("platform", readOnlyProxy(L, t))
	return nil
}

// distroValue is nil off Linux or when the distro lookup came back empty.
func distroValue(L *lua.LState, info *Info) lua.LValue {
	if !info.IsLinux() || info.Platform == "" {
		return lua.LNil
	}
	d := L.NewTable()
	d.RawSetString("id", lua.LString(info.Platform))
	d.RawSetString("family", lua.LString(info.Distro))
	d.RawSetString("version", lua.LString(info.Version))
	return d
}

func luaWhen(L *lua.LState) int {
	if L.CheckBool(1) {
		L.Push(L.Get(2))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

// readOnlyProxy returns an empty table whose metatable forwards reads to t
// and rejects writes. The metatable itself is locked.
func readOnlyProxy(L *lua.LState, t *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	mt.RawSetString("__index", t)
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only")
		return 0
	}))
	mt.RawSetString("__metatable", lua.LString("locked"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
