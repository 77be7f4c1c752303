package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds a single classify call.
const DefaultTimeout = 250 * time.Millisecond

// classifyFunc is the global the script must define.
const classifyFunc = "classify"

// ErrNoClassify is returned when a script does not define classify.
var ErrNoClassify = errors.New("script does not define function classify")

// newState creates a sandboxed Lua state and runs the script at path in it.
func newState(path string) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading script %s: %w", path, err)
	}
	if fn := L.GetGlobal(classifyFunc); fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoClassify)
	}
	return L, nil
}

// openSafeLibraries opens the base, table, string and math libraries and
// removes the base functions that load code from disk or strings.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// match is the result of one classify call.
type match struct {
	name        string
	first, last int
	whole       bool
}

// call runs classify for one line. It returns false when the script
// declines the line.
func call(L *lua.LState, timeout time.Duration, line string, lineno int) (match, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()

	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(classifyFunc),
		NRet:    3,
		Protect: true,
	}, lua.LString(line), lua.LNumber(lineno))
	if err != nil {
		return match{}, false, err
	}
	name, first, last := L.Get(-3), L.Get(-2), L.Get(-1)
	L.Pop(3)

	s, ok := name.(lua.LString)
	if !ok || s == "" {
		return match{}, false, nil
	}
	m := match{name: string(s)}

	f, fok := first.(lua.LNumber)
	l, lok := last.(lua.LNumber)
	switch {
	case first == lua.LNil && last == lua.LNil:
		m.whole = true
	case fok && lok:
		m.first, m.last = int(f), int(l)
	case fok && last == lua.LNil:
		m.first, m.last = int(f), len(line)
	default:
		return match{}, false, fmt.Errorf("classify returned non-numeric range for line %d", lineno)
	}
	return m, true, nil
}
