package script

import (
	lua "github.com/yuin/gopher-lua"
)

// openSafeLibraries opens the libraries that cannot reach the file system,
// the process or the interpreter internals. io, os, debug and package stay
// closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// The base library can still load code from disk or strings.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}
