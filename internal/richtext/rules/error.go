// Типы ошибок системы правил.
//
// Ошибки делятся на два вида:
//   - отказ: скрипт вернул status=false, сохранение запрещено
//   - ошибка скрипта: синтаксис, ошибка выполнения, таймаут или неверный результат
package rules

import (
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/apierrors"
)

type IRulesError interface {
	error
	GetTime() time.Time
	GetFnName() *string
	ScriptError() (string, *string, bool)
	ClientError() apierrors.DefinedError
	Rejected() bool
}

const (
	errScript      = "error executing rules script"
	errParseScript = "error parsing lua script"
	errTimeout     = "Lua execution timed out"
	errRejected    = "prohibition of committing an action"
)

type rulesError struct {
	Err     string          `json:"err,omitempty"`
	FullErr *errDescription `json:"full_err,omitempty"`
	Info    *debugInfo      `json:"info,omitempty"`
	Reject  bool            `json:"rejected"`
}

type errDescription struct {
	ErrMsg   string  `json:"err_msg,omitempty"`
	LuaError *string `json:"lua_error,omitempty"`
}

func newRejection(err IRulesError) IRulesError {
	if re, ok := err.(*rulesError); ok {
		re.Reject = true
	}
	return err
}

func (e *rulesError) GetTime() time.Time {
	return e.Info.Time
}

func (e *rulesError) GetFnName() *string {
	return e.Info.Function
}

func (e *rulesError) Error() string {
	return e.Err
}

func (e *rulesError) Rejected() bool {
	return e.Reject
}

func (e *rulesError) ScriptError() (string, *string, bool) {
	if e.FullErr.ErrMsg == "" {
		return "", nil, false
	}
	return e.FullErr.ErrMsg, e.FullErr.LuaError, true
}

func (e *rulesError) ClientError() apierrors.DefinedError {
	if e.Reject {
		return apierrors.ErrRuleRejected.WithFormattedMessage(e.Err)
	}
	if e.Err == errScript {
		return apierrors.ErrRuleScriptFail
	}
	return apierrors.ErrGeneric
}
