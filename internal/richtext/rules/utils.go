package rules

import (
	"fmt"
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/edtypes"
	lua "github.com/yuin/gopher-lua"
)

type LuaOut struct {
	Msg    string
	Time   time.Time
	FnName string
}

type LuaResp struct {
	ClientResult     bool
	ScriptFlowResult bool
	Info             *debugInfo
}

type debugInfo struct {
	Function   *string   `json:"function"`
	DocumentId string    `json:"document_id"`
	Version    int       `json:"version"`
	Time       time.Time `json:"time"`
}

func (r *LuaResp) GetTime() time.Time {
	return r.Info.Time
}

func (r *LuaResp) GetFnName() *string {
	return r.Info.Function
}

func deniedLib(state *lua.LState) {
	state.SetGlobal("require", lua.LNil)
	state.SetGlobal("loadfile", lua.LNil)
	state.SetGlobal("dofile", lua.LNil)
	state.SetGlobal("load", lua.LNil)
	state.SetGlobal("loadstring", lua.LNil)
	state.SetGlobal("net", lua.LNil)
	state.SetGlobal("debug", lua.LNil)
	state.SetGlobal("coroutine", lua.LNil)
	state.SetGlobal("socket", lua.LNil)
	state.SetGlobal("lfs", lua.LNil)
	state.SetGlobal("os", lua.LNil)
	state.SetGlobal("io", lua.LNil)
	state.SetGlobal("package", lua.LNil)
	state.SetGlobal("ffi", lua.LNil)
}

func registerLogger(state *lua.LState) {
	messages := state.NewTable()
	state.SetGlobal("messages", messages)
	state.SetGlobal("print", state.NewFunction(func(L *lua.LState) int {
		var message string
		numArgs := L.GetTop()
		for i := 1; i <= numArgs; i++ {
			arg := L.ToString(i)
			if i > 1 {
				message += " "
			}
			message += arg
		}
		msgTable := L.NewTable()
		msgTable.RawSetString("msg", lua.LString(message))
		currentTime := time.Now()
		formattedTime := fmt.Sprintf("%d.%09d", currentTime.Unix(), currentTime.Nanosecond())
		msgTable.RawSetString("time", lua.LString(formattedTime))
		messages.Append(msgTable)
		return 0
	}))
}

// getValueTable представляет значение таблицей с полями text, length, start, end и методами
// hasFormat(type), countFormat(type) и formatsAt(index). Индексы символов считаются с нуля.
func getValueTable(state *lua.LState, v edtypes.Value) *lua.LTable {
	table := state.NewTable()
	table.RawSetString("text", lua.LString(v.Text))
	table.RawSetString("length", lua.LNumber(v.Len()))
	if v.Start != nil {
		table.RawSetString("start", lua.LNumber(*v.Start))
	}
	if v.End != nil {
		table.RawSetString("end", lua.LNumber(*v.End))
	}

	countFormat := func(formatType string) int {
		count := 0
		for _, stack := range v.Formats {
			for _, f := range stack {
				if f.Type == formatType {
					count++
					break
				}
			}
		}
		return count
	}

	metaTable := state.NewTable()
	state.SetFuncs(metaTable, map[string]lua.LGFunction{
		"hasFormat": func(L *lua.LState) int {
			L.Push(lua.LBool(countFormat(L.CheckString(2)) > 0))
			return 1
		},
		"countFormat": func(L *lua.LState) int {
			L.Push(lua.LNumber(countFormat(L.CheckString(2))))
			return 1
		},
		"formatsAt": func(L *lua.LState) int {
			res := L.NewTable()
			for _, f := range v.FormatsAt(L.CheckInt(2)) {
				res.Append(lua.LString(f.Type))
			}
			L.Push(res)
			return 1
		},
	})
	state.SetField(metaTable, "__index", metaTable)
	state.SetMetatable(table, metaTable)
	return table
}
