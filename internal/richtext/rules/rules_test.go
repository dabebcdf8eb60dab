package rules

import (
	"net/http"
	"testing"
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/dao"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func docWithScript(script string) dao.Document {
	return dao.Document{
		ID:          dao.GenUUID(),
		Title:       "План",
		Version:     3,
		Content:     editor.Create("old"),
		RulesScript: &script,
	}
}

func TestBeforeSaveNoScript(t *testing.T) {
	resp, out, err := BeforeSave(dao.Document{}, editor.Create("a"))
	assert.Nil(t, err)
	assert.Empty(t, out)
	assert.True(t, resp.ClientResult)
	assert.False(t, resp.ScriptFlowResult)
}

func TestBeforeSave(t *testing.T) {
	script := `
	function BeforeSave(params, value)
		print("checking", params.document.title, value.length)
		if value:hasFormat("image") and params:compareTitle("План") then
			return { status = false, error = "В плане нельзя использовать изображения." }
		end
		if value:countFormat("bold") > 3 then
			return { status = false }
		end
		return { status = true }
	end
	`
	doc := docWithScript(script)

	t.Run("allowed", func(t *testing.T) {
		resp, out, err := BeforeSave(doc, editor.ApplyFormat(editor.Create("abc"), editor.Format{Type: "bold"}, 0, 2))
		require.Nil(t, err)
		assert.True(t, resp.ClientResult)
		assert.True(t, resp.ScriptFlowResult)
		require.Len(t, out, 1)
		assert.Equal(t, "checking План 3", out[0].Msg)
		assert.Equal(t, "BeforeSave", out[0].FnName)
		assert.False(t, out[0].Time.IsZero())
	})

	t.Run("rejected with message", func(t *testing.T) {
		v := editor.InsertObject(editor.Create("ab"), editor.Format{Type: "image"}, 1, 1)
		resp, _, err := BeforeSave(doc, v)
		require.NotNil(t, err)
		assert.False(t, resp.ClientResult)
		assert.True(t, err.Rejected())

		clientErr := err.ClientError()
		assert.Equal(t, http.StatusUnprocessableEntity, clientErr.StatusCode)
		assert.Contains(t, clientErr.Error(), "В плане нельзя использовать изображения.")
	})

	t.Run("rejected without message", func(t *testing.T) {
		v := editor.ApplyFormat(editor.Create("abcde"), editor.Format{Type: "bold"}, 0, 5)
		_, _, err := BeforeSave(doc, v)
		require.NotNil(t, err)
		assert.True(t, err.Rejected())
		_, _, hasDetails := err.ScriptError()
		assert.False(t, hasDetails)
	})
}

func TestBeforeSaveScriptErrors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		errMsg  string
		noError bool
	}{
		{name: "syntax", script: `function BeforeSave(`, errMsg: errParseScript},
		{name: "runtime", script: `function BeforeSave(p, v) return nil + 1 end`, errMsg: "Script error"},
		{name: "not a table", script: `function BeforeSave(p, v) return true end`, errMsg: "Unexpected return type from Lua script expected table"},
		{name: "missing status", script: `function BeforeSave(p, v) return {} end`, errMsg: "Lua table missing 'status' key"},
		{name: "denied library", script: `function BeforeSave(p, v) os.exit(1) return { status = true } end`, errMsg: "Script error"},
		{name: "no function", script: `x = 1`, noError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _, err := BeforeSave(docWithScript(tt.script), editor.Create("a"))
			assert.True(t, resp.ClientResult)
			assert.False(t, resp.ScriptFlowResult)
			if tt.noError {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.False(t, err.Rejected())
			msg, _, ok := err.ScriptError()
			assert.True(t, ok)
			assert.Equal(t, tt.errMsg, msg)
			assert.Equal(t, http.StatusBadRequest, err.ClientError().StatusCode)
		})
	}
}

func TestBeforeSaveTimeout(t *testing.T) {
	prev := Timeout
	Timeout = 200 * time.Millisecond
	defer func() { Timeout = prev }()

	_, _, err := BeforeSave(docWithScript(`function BeforeSave(p, v) while true do end end`), editor.Create("a"))
	require.NotNil(t, err)
	msg, _, _ := err.ScriptError()
	assert.Equal(t, errTimeout, msg)
}

func TestValueTable(t *testing.T) {
	script := `
	function BeforeSave(params, value)
		local f = value:formatsAt(1)
		print(value.text, value.start, value["end"], #f, f[1], params.current.text)
		return { status = true }
	end
	`
	v := editor.ApplyFormat(editor.Create("héllo"), editor.Format{Type: "italic"}, 1, 2)
	v.Start, v.End = editor.Offset(1), editor.Offset(2)

	_, out, err := BeforeSave(docWithScript(script), v)
	require.Nil(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "héllo 1 2 1 italic old", out[0].Msg)
}

func TestRulesLog(t *testing.T) {
	db, err := dao.OpenDB("file:rules_log?mode=memory&cache=shared", &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	doc := docWithScript(`function BeforeSave(p, v) print("hi") return { status = false, error = "no" } end`)
	resp, out, rErr := BeforeSave(doc, editor.Create("a"))

	var logs []dao.RulesLog
	ResultToLog(doc, resp, rErr, &logs)
	AppendMsg(doc, out, &logs)
	AppendError(doc, rErr, &logs)
	require.Len(t, logs, 2)
	assert.Equal(t, "fail", logs[0].Type)
	assert.Equal(t, "no", logs[0].Msg)
	assert.Equal(t, "print", logs[1].Type)

	require.NoError(t, AddLog(db, logs))
	page, err := dao.ListRulesLog(db, doc.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)
}
