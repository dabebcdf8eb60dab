// Пакет выполняет Lua-скрипты документа перед сохранением нового содержимого.
//
// Основные возможности:
//   - Вызов функции BeforeSave(params, value) из скрипта документа.
//   - Передача в скрипт сведений о документе и нового значения с методами для проверки форматов.
//   - Ограничение доступных библиотек и времени выполнения скрипта.
//   - Сбор вывода print и формирование результата для клиента.
package rules

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/dao"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/edtypes"
	lua "github.com/yuin/gopher-lua"
)

// Timeout максимальное время разбора и выполнения скрипта.
var Timeout = 10 * time.Second

type callResult struct {
	ret lua.LValue
	err error
}

// BeforeSave вызывает функцию BeforeSave скрипта документа для нового значения.
// Документ без скрипта или скрипт без такой функции пропускают значение.
func BeforeSave(doc dao.Document, newValue edtypes.Value) (LuaResp, []LuaOut, IRulesError) {
	return callEventFunction("BeforeSave", doc, newValue)
}

func callEventFunction(fnName string, doc dao.Document, value edtypes.Value) (LuaResp, []LuaOut, IRulesError) {
	info := &debugInfo{
		Function:   &fnName,
		DocumentId: doc.ID.String(),
		Version:    doc.Version,
	}

	errFull := &errDescription{}

	newErr := func(err string) IRulesError {
		info.Time = time.Now()
		return &rulesError{
			Err:     err,
			Info:    info,
			FullErr: errFull,
		}
	}

	resp := func(client, script bool) LuaResp {
		info.Time = time.Now()
		return LuaResp{
			ClientResult:     client,
			ScriptFlowResult: script,
			Info:             info,
		}
	}

	if doc.RulesScript == nil || strings.TrimSpace(*doc.RulesScript) == "" {
		return resp(true, false), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	state := lua.NewState()
	defer state.Close()
	state.SetContext(ctx)

	deniedLib(state)
	registerLogger(state)

	errChan := make(chan error, 1)
	go func() {
		errChan <- state.DoString(*doc.RulesScript)
	}()

	select {
	case <-ctx.Done():
		<-errChan
		errFull.ErrMsg = errTimeout
		return resp(true, false), nil, newErr(errScript)
	case err := <-errChan:
		if err != nil {
			luaErr := strings.TrimSpace(err.Error())
			errFull.ErrMsg = errParseScript
			if ctx.Err() != nil {
				errFull.ErrMsg = errTimeout
			}
			errFull.LuaError = &luaErr
			return resp(true, false), nil, newErr(errScript)
		}
	}

	fn := state.GetGlobal(fnName)
	if fn == lua.LNil {
		return resp(true, false), nil, nil
	}

	args := []lua.LValue{
		getCallParams(state, doc),
		getValueTable(state, value),
	}

	resultChan := make(chan callResult, 1)
	go func() {
		if err := state.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, args...); err != nil {
			resultChan <- callResult{ret: lua.LNil, err: err}
		} else {
			resultChan <- callResult{ret: state.Get(-1)}
		}
	}()

	select {
	case <-ctx.Done():
		<-resultChan
		errFull.ErrMsg = errTimeout
		return resp(true, false), nil, newErr(errScript)
	case res := <-resultChan:
		if res.err != nil {
			luaErr := strings.TrimSpace(res.err.Error())
			errFull.ErrMsg = "Script error"
			if ctx.Err() != nil {
				errFull.ErrMsg = errTimeout
			}
			errFull.LuaError = &luaErr
		}
		ret := res.ret
		messages := collectMessages(state, fnName)

		if ret == lua.LNil {
			return resp(true, false), messages, newErr(errScript)
		}

		retTable, ok := ret.(*lua.LTable)
		if !ok {
			luaErr := strings.TrimSpace(fmt.Sprintf("%T", ret))
			errFull.ErrMsg = "Unexpected return type from Lua script expected table"
			errFull.LuaError = &luaErr
			return resp(true, false), messages, newErr(errScript)
		}

		status := retTable.RawGetString("status")
		errStr := retTable.RawGetString("error")

		if status == lua.LNil {
			errFull.ErrMsg = "Lua table missing 'status' key"
			return resp(true, false), messages, newErr(errScript)
		}

		if status == lua.LTrue {
			return resp(true, true), messages, nil
		}

		if errStr != lua.LNil {
			return resp(false, true), messages, newRejection(newErr(errStr.String()))
		}
		return resp(false, true), messages, newRejection(newErr(errRejected))
	}
}

func collectMessages(state *lua.LState, fnName string) []LuaOut {
	var messages []LuaOut
	messagesTable, ok := state.GetGlobal("messages").(*lua.LTable)
	if !ok {
		return nil
	}
	for i := 1; i <= messagesTable.Len(); i++ {
		entry, ok := messagesTable.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		msg := entry.RawGetString("msg").String()
		timeStr := entry.RawGetString("time").String()
		var msgTime time.Time
		if sec, nsec, found := strings.Cut(timeStr, "."); found {
			seconds, err := strconv.ParseInt(sec, 10, 64)
			nanoseconds, err2 := strconv.ParseInt(nsec, 10, 64)
			if err == nil && err2 == nil {
				msgTime = time.Unix(seconds, nanoseconds)
			}
		}

		messages = append(messages, LuaOut{
			Msg:    msg,
			Time:   msgTime,
			FnName: fnName,
		})
	}
	return messages
}

func getCallParams(state *lua.LState, doc dao.Document) *lua.LTable {
	params := state.NewTable()

	docTable := state.NewTable()
	docTable.RawSetString("id", lua.LString(doc.ID.String()))
	docTable.RawSetString("title", lua.LString(doc.Title))
	docTable.RawSetString("multiline_tag", lua.LString(doc.MultilineTag))
	docTable.RawSetString("version", lua.LNumber(doc.Version))
	docTable.RawSetString("updated_at", lua.LNumber(doc.UpdatedAt.Unix()))
	params.RawSetString("document", docTable)
	params.RawSetString("current", getValueTable(state, doc.Content))

	metaTable := state.NewTable()
	state.SetFuncs(metaTable, map[string]lua.LGFunction{
		"compareTitle": func(L *lua.LState) int {
			self := L.CheckTable(1)
			inputTitle := L.CheckString(2)
			documentTable, ok := self.RawGetString("document").(*lua.LTable)
			L.Push(lua.LBool(ok && documentTable.RawGetString("title").String() == inputTitle))
			return 1
		},
	})
	state.SetField(metaTable, "__index", metaTable)
	state.SetMetatable(params, metaTable)

	return params
}
