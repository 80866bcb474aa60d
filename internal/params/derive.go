package params

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/flarebyte/nbrun/internal/errors"
)

// DefaultDeriveTimeout bounds a derivation script.
const DefaultDeriveTimeout = 2 * time.Second

// Derive runs code once against the loaded parameters and returns the set it
// produces. The script sees the parameters as the global table `params` and
// must return a table. Only the base, table, string and math libraries are
// opened; math.random is seeded from the script text so runs are repeatable.
//
// An empty script returns in unchanged.
func Derive(in Set, code string, timeout time.Duration) (Set, error) {
	if strings.TrimSpace(code) == "" {
		return in, nil
	}
	L := newSandbox(code)
	defer L.Close()

	if timeout <= 0 {
		timeout = DefaultDeriveTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	L.SetContext(ctx)

	conv := &luaConverter{emptyLists: map[*lua.LTable]bool{}}
	L.SetGlobal("params", conv.toLValue(L, in.Map()))
	fn, err := compile(L, code)
	if err != nil {
		return Set{}, errors.Wrap(err, "derive")
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if ctx.Err() != nil {
			return Set{}, errors.Newf("derive: timeout after %s", timeout)
		}
		return Set{}, errors.Wrap(err, "derive")
	}
	ret := L.Get(-1)
	L.Pop(1)
	m, ok := conv.fromLValue(ret).(map[string]any)
	if !ok {
		return Set{}, errors.Newf("derive: script must return a table with named keys, got %s", ret.Type().String())
	}
	return FromMap(m), nil
}

// compile accepts either a bare expression or a chunk with its own return
// statement. The expression form is tried first.
func compile(L *lua.LState, code string) (*lua.LFunction, error) {
	if fn, err := L.LoadString("return (" + code + "\n)"); err == nil {
		return fn, nil
	}
	return L.LoadString(code)
}

func newSandbox(code string) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, unsafe := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(unsafe, lua.LNil)
	}
	installDeterministicRandom(L, seedFor(code))
	return L
}

func seedFor(code string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(code))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

func installDeterministicRandom(L *lua.LState, seed int64) {
	mathTbl, ok := L.GetGlobal("math").(*lua.LTable)
	if !ok {
		return
	}
	rng := rand.New(rand.NewSource(seed))
	mathTbl.RawSetString("random", L.NewFunction(func(L *lua.LState) int {
		switch L.GetTop() {
		case 0:
			L.Push(lua.LNumber(rng.Float64()))
		case 1:
			hi := L.CheckInt(1)
			if hi < 1 {
				L.ArgError(1, "interval is empty")
				return 0
			}
			L.Push(lua.LNumber(rng.Intn(hi) + 1))
		default:
			lo, hi := L.CheckInt(1), L.CheckInt(2)
			if hi < lo {
				L.ArgError(2, "interval is empty")
				return 0
			}
			L.Push(lua.LNumber(rng.Intn(hi-lo+1) + lo))
		}
		return 1
	}))
	mathTbl.RawSetString("randomseed", L.NewFunction(func(L *lua.LState) int { return 0 }))
}

// luaConverter moves values between Go and Lua. Lua has a single table type,
// so tables built from empty Go slices are remembered and come back as [].
type luaConverter struct {
	emptyLists map[*lua.LTable]bool
}

func (c *luaConverter) toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case time.Time:
		return lua.LString(x.Format(time.RFC3339))
	case map[string]any:
		tbl := L.NewTable()
		for k, vv := range x {
			tbl.RawSetString(k, c.toLValue(L, vv))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		if len(x) == 0 {
			c.emptyLists[tbl] = true
		}
		for _, vv := range x {
			tbl.Append(c.toLValue(L, vv))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// fromLValue converts a Lua value back to Go. Tables with only 1..n integer
// keys become slices; any other table becomes a string-keyed map.
func (c *luaConverter) fromLValue(v lua.LValue) any {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LString:
		return string(x)
	case lua.LNumber:
		f := float64(x)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case *lua.LTable:
		n := x.Len()
		keys := 0
		x.ForEach(func(lua.LValue, lua.LValue) { keys++ })
		if keys == 0 && c.emptyLists[x] {
			return []any{}
		}
		if n > 0 && keys == n {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, c.fromLValue(x.RawGetInt(i)))
			}
			return out
		}
		m := map[string]any{}
		x.ForEach(func(k, vv lua.LValue) {
			m[k.String()] = c.fromLValue(vv)
		})
		return m
	default:
		return nil
	}
}
