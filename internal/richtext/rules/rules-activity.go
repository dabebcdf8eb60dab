// Сохранение результатов выполнения Lua-скриптов в таблицу RulesLog.
//
// Функции:
//   - AddLog: батчевая запись логов в БД
//   - ResultToLog: преобразование результата выполнения скрипта в лог
//   - AppendMsg: добавление сообщений print() в лог
//   - AppendError: добавление ошибок скрипта в лог
package rules

import (
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/dao"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func AddLog(tx *gorm.DB, logs []dao.RulesLog) error {
	if len(logs) == 0 {
		return nil
	}
	if err := tx.Omit(clause.Associations).CreateInBatches(logs, 10).Error; err != nil {
		return err
	}
	return nil
}

func ResultToLog(doc dao.Document, result LuaResp, err IRulesError, logs *[]dao.RulesLog) {
	if !result.ScriptFlowResult {
		return
	}
	var t, msg string
	if result.ClientResult {
		t = "success"
	} else {
		t = "fail"
		if err != nil {
			msg = err.Error()
		}
	}
	*logs = append(*logs, dao.RulesLog{
		ID:           dao.GenUUID(),
		CreatedAt:    time.Now(),
		DocumentID:   doc.ID,
		Time:         result.GetTime(),
		FunctionName: result.GetFnName(),
		Type:         t,
		Msg:          msg,
	})
}

func AppendMsg(doc dao.Document, msg []LuaOut, logs *[]dao.RulesLog) {
	for _, out := range msg {
		*logs = append(*logs, dao.RulesLog{
			ID:           dao.GenUUID(),
			CreatedAt:    time.Now(),
			DocumentID:   doc.ID,
			Time:         out.Time,
			FunctionName: &out.FnName,
			Type:         "print",
			Msg:          out.Msg,
		})
	}
}

func AppendError(doc dao.Document, err IRulesError, logs *[]dao.RulesLog) {
	if err == nil {
		return
	}
	if str, luaErr, ok := err.ScriptError(); ok {
		*logs = append(*logs, dao.RulesLog{
			ID:           dao.GenUUID(),
			CreatedAt:    time.Now(),
			DocumentID:   doc.ID,
			Time:         err.GetTime(),
			FunctionName: err.GetFnName(),
			Type:         "error",
			Msg:          str,
			LuaErr:       luaErr,
		})
	}
}
