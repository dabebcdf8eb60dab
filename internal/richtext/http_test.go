package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/apierrors"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/config"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/dao"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
	"github.com/WordPress/gutenberg-sub061/pkg/limiter"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	e   *echo.Echo
	db  *gorm.DB
	cfg *config.Config
	reg *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := dao.OpenDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	cfg := &config.Config{BodyLimit: "2M"}
	reg := prometheus.NewRegistry()
	return &testServer{
		e:   NewEcho(db, cfg, "test", reg),
		db:  db,
		cfg: cfg,
		reg: reg,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func assertDefinedError(t *testing.T, rec *httptest.ResponseRecorder, want apierrors.DefinedError) {
	t.Helper()
	assert.Equal(t, want.StatusCode, rec.Code, rec.Body.String())
	got := decode[apierrors.DefinedError](t, rec)
	assert.Equal(t, want.Code, got.Code)
}

func withLimit(t *testing.T, n int) {
	prev := limiter.Limiter
	limiter.Limiter = limiter.CommunityLimiter{MaxTextLength: n}
	t.Cleanup(func() { limiter.Limiter = prev })
}

func TestSplitEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/split", SplitRequest{Text: "a,,b,", Delimiter: ","})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a", "", "b", ""}, decode[[]string](t, rec))
	assert.Equal(t, "RichText", rec.Header().Get(echo.HeaderServer))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = ts.do(t, http.MethodPost, "/api/split/", SplitRequest{Text: "a"})
	assertDefinedError(t, rec, apierrors.ErrRequestValidate)
}

func TestValidateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/validate/", ValidateRequest{Value: editor.Create("ab")})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ValidateResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Errors)

	v := editor.Create("ab")
	v.Formats = v.Formats[:1]
	v.End = editor.Offset(5)
	rec = ts.do(t, http.MethodPost, "/api/validate/", ValidateRequest{Value: v})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[ValidateResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.Len(t, resp.Errors, 2)
}

func TestConvertHTML(t *testing.T) {
	ts := newTestServer(t)

	v := editor.ApplyFormat(editor.Create("abc"), editor.Format{Type: "bold"}, 1, 3)
	v.Start, v.End = editor.Offset(1), editor.Offset(3)

	rec := ts.do(t, http.MethodPost, "/api/convert/html/", ConvertRequest{Value: v})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ConvertHTMLResponse](t, rec)
	assert.Equal(t, "a<strong>bc</strong>", resp.HTML)
	require.NotNil(t, resp.Start)
	require.NotNil(t, resp.End)
	assert.Equal(t, DOMPoint{Path: []int{0}, Offset: 1}, *resp.Start)
	assert.Equal(t, DOMPoint{Path: []int{1, 0}, Offset: 2}, *resp.End)

	t.Run("multiline", func(t *testing.T) {
		tag := "p"
		rec := ts.do(t, http.MethodPost, "/api/convert/html/", ConvertRequest{
			Value:        editor.Create("a" + string(editor.LineSeparator) + "b"),
			MultilineTag: &tag,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[ConvertHTMLResponse](t, rec)
		assert.Equal(t, "<p>a</p><p>b</p>", resp.HTML)
		assert.Nil(t, resp.Start)
	})

	t.Run("bad multiline tag", func(t *testing.T) {
		tag := "table"
		rec := ts.do(t, http.MethodPost, "/api/convert/html/", ConvertRequest{Value: editor.Create("a"), MultilineTag: &tag})
		assertDefinedError(t, rec, apierrors.ErrRequestValidate)
	})

	t.Run("invalid value", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/convert/html/", `{"value":{"text":"ab","formats":[[]]}}`)
		assertDefinedError(t, rec, apierrors.ErrInvalidValue)
	})

	t.Run("object character without format", func(t *testing.T) {
		v := editor.Create("a" + string(editor.ObjectReplacementCharacter) + "b")
		rec := ts.do(t, http.MethodPost, "/api/convert/html/", ConvertRequest{Value: v})
		assertDefinedError(t, rec, apierrors.ErrInvalidValue)
		assert.Contains(t, rec.Body.String(), "object character without object format")
	})

	t.Run("too large", func(t *testing.T) {
		withLimit(t, 2)
		rec := ts.do(t, http.MethodPost, "/api/convert/html/", ConvertRequest{Value: editor.Create("abc")})
		assertDefinedError(t, rec, apierrors.ErrValueTooLarge)
		assert.Contains(t, rec.Body.String(), ": 3 / 2")
	})
}

func TestConvertBatch(t *testing.T) {
	ts := newTestServer(t)

	values := []editor.Value{
		editor.Create("one"),
		editor.ApplyFormat(editor.Create("two"), editor.Format{Type: "italic"}, 0, 3),
		editor.Create("a\nb"),
	}
	rec := ts.do(t, http.MethodPost, "/api/convert/batch/", BatchConvertRequest{Values: values})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"one", "<em>two</em>", "a<br/>b"}, decode[[]string](t, rec))

	rec = ts.do(t, http.MethodPost, "/api/convert/batch/", BatchConvertRequest{Values: make([]editor.Value, MaxBatchSize+1)})
	assertDefinedError(t, rec, apierrors.ErrBatchTooLarge)

	rec = ts.do(t, http.MethodPost, "/api/convert/batch/", `{"values":[{"text":"a","formats":[null]},{"text":"ab","formats":[]}]}`)
	assertDefinedError(t, rec, apierrors.ErrInvalidValue)
}

func TestConvertExports(t *testing.T) {
	ts := newTestServer(t)
	v := editor.ApplyFormat(editor.Create("ab"), editor.Format{Type: "bold"}, 0, 2)

	rec := ts.do(t, http.MethodPost, "/api/convert/markdown/", ConvertRequest{Value: v, Title: "Заметка"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/markdown")
	assert.Equal(t, "# Заметка\n**ab**", rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/convert/pdf/", ConvertRequest{Value: v})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = ts.do(t, http.MethodPost, "/api/convert/tiptap/", ConvertRequest{Value: v})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","marks":[{"type":"bold"}],"text":"ab"}]}]}`,
		rec.Body.String())
}

func TestParseEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/parse/html/", ParseHTMLRequest{HTML: "<strong>a</strong>b"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[editor.Value](t, rec)
	assert.Equal(t, "ab", v.Text)
	require.Len(t, v.Formats, 2)
	assert.Equal(t, []editor.Format{{Type: "bold"}}, v.Formats[0])
	assert.Empty(t, v.Formats[1])

	t.Run("sanitize", func(t *testing.T) {
		ts.cfg.SanitizeInput = true
		defer func() { ts.cfg.SanitizeInput = false }()

		rec := ts.do(t, http.MethodPost, "/api/parse/html/", ParseHTMLRequest{HTML: `a<script>alert(1)</script>`})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "a", decode[editor.Value](t, rec).Text)
	})

	t.Run("selector", func(t *testing.T) {
		page := `<html><body><header>site</header><main id="content"><em>x</em>y</main></body></html>`
		rec := ts.do(t, http.MethodPost, "/api/parse/html/", ParseHTMLRequest{HTML: page, Selector: "#content"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		v := decode[editor.Value](t, rec)
		assert.Equal(t, "xy", v.Text)
		assert.Equal(t, []editor.Format{{Type: "italic"}}, v.Formats[0])

		rec = ts.do(t, http.MethodPost, "/api/parse/html/", ParseHTMLRequest{HTML: page, Selector: "aside"})
		assertDefinedError(t, rec, apierrors.ErrHTMLSelector)
	})

	rec = ts.do(t, http.MethodPost, "/api/parse/tiptap/",
		`{"type":"doc","content":[{"type":"bulletList","content":[`+
			`{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"a"}]}]},`+
			`{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"b"}]}]}]}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ParseTipTapResponse](t, rec)
	assert.Equal(t, "li", resp.MultilineTag)
	assert.Equal(t, "a"+string(editor.LineSeparator)+"b", resp.Value.Text)

	rec = ts.do(t, http.MethodPost, "/api/parse/tiptap/", `{"type":`)
	assertDefinedError(t, rec, apierrors.ErrTipTapParse)
}

func TestFormatEndpoints(t *testing.T) {
	ts := newTestServer(t)
	v := editor.Create("ab")
	v.Start, v.End = editor.Offset(0), editor.Offset(1)

	rec := ts.do(t, http.MethodPost, "/api/format/apply/", FormatRequest{Value: v, Type: "bold"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bolded := decode[editor.Value](t, rec)
	assert.Equal(t, []editor.Format{{Type: "bold"}}, bolded.Formats[0])
	assert.Empty(t, bolded.Formats[1])

	rec = ts.do(t, http.MethodPost, "/api/format/apply/", FormatRequest{Value: bolded, Type: "bold", Toggle: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[editor.Value](t, rec).Formats[0])

	rec = ts.do(t, http.MethodPost, "/api/format/remove/", FormatRequest{Value: bolded, Type: "bold", Start: editor.Offset(0), End: editor.Offset(2)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[editor.Value](t, rec).Formats[0])

	t.Run("object", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/format/apply/", FormatRequest{
			Value:      editor.Create("ab"),
			Type:       "image",
			Attributes: editor.Attributes{{Key: "src", Val: "a.png"}},
			Start:      editor.Offset(1),
			End:        editor.Offset(1),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		res := decode[editor.Value](t, rec)
		assert.Equal(t, "a"+string(editor.ObjectReplacementCharacter)+"b", res.Text)
		require.Len(t, res.Formats[1], 1)
		assert.True(t, res.Formats[1][0].Object)
	})

	t.Run("errors", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/format/apply/", FormatRequest{Value: v})
		assertDefinedError(t, rec, apierrors.ErrFormatTypeRequired)

		rec = ts.do(t, http.MethodPost, "/api/format/apply/", FormatRequest{Value: v, Type: "Bold!"})
		assertDefinedError(t, rec, apierrors.ErrRequestValidate)

		rec = ts.do(t, http.MethodPost, "/api/format/apply/", FormatRequest{Value: editor.Create("ab"), Type: "bold"})
		assertDefinedError(t, rec, apierrors.ErrInvalidRange)

		rec = ts.do(t, http.MethodPost, "/api/format/remove/", FormatRequest{Value: editor.Create("ab"), Type: "bold", Start: editor.Offset(2), End: editor.Offset(1)})
		assertDefinedError(t, rec, apierrors.ErrInvalidRange)
	})
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t)

	html := "<strong>hi</strong>"
	rec := ts.do(t, http.MethodPost, "/api/documents/", DocumentRequest{Title: "Заметка", HTML: &html})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[dao.Document](t, rec)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "hi", doc.Content.Text)
	base := "/api/documents/" + doc.ID.String() + "/"

	rec = ts.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, doc.ID, decode[dao.Document](t, rec).ID)

	newTitle := "План"
	content := editor.ApplyFormat(editor.Create("hello"), editor.Format{Type: "italic"}, 0, 5)
	rec = ts.do(t, http.MethodPatch, base, UpdateDocumentRequest{Title: &newTitle, Content: &content})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[dao.Document](t, rec)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "План", updated.Title)

	rec = ts.do(t, http.MethodGet, base+"html/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<em>hello</em>", decode[DocumentHTMLResponse](t, rec).HTML)

	rec = ts.do(t, http.MethodGet, base+"revisions/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	revs := decode[[]dao.DocumentRevision](t, rec)
	require.Len(t, revs, 1)
	assert.Equal(t, 1, revs[0].Version)

	rec = ts.do(t, http.MethodGet, base+"revisions/1/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rev := decode[dao.DocumentRevision](t, rec)
	assert.Equal(t, "Заметка", rev.Title)
	assert.Equal(t, "hi", rev.Content.Text)

	rec = ts.do(t, http.MethodGet, base+"revisions/7/", nil)
	assertDefinedError(t, rec, apierrors.ErrRevisionNotFound)

	rec = ts.do(t, http.MethodGet, "/api/documents/?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Count  int64           `json:"count"`
		Result []DocumentLight `json:"result"`
	}](t, rec)
	assert.EqualValues(t, 1, list.Count)
	require.Len(t, list.Result, 1)
	assert.Equal(t, "hello", list.Result[0].Preview)
	assert.Equal(t, 2, list.Result[0].Version)

	rec = ts.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, base, nil)
	assertDefinedError(t, rec, apierrors.ErrDocumentNotFound)
}

func TestDocumentErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/documents/not-a-uuid/", nil)
	assertDefinedError(t, rec, apierrors.ErrDocumentIdInvalid)

	rec = ts.do(t, http.MethodPost, "/api/documents/", DocumentRequest{Title: "  "})
	assertDefinedError(t, rec, apierrors.ErrDocumentTitleRequired)

	tag := "table"
	rec = ts.do(t, http.MethodPost, "/api/documents/", DocumentRequest{Title: "t", MultilineTag: &tag})
	assertDefinedError(t, rec, apierrors.ErrDocumentRequestValidate)

	rec = ts.do(t, http.MethodPost, "/api/documents/", `{"title":"t","content":{"text":"ab","formats":[]}}`)
	assertDefinedError(t, rec, apierrors.ErrInvalidValue)

	rec = ts.do(t, http.MethodPost, "/api/documents/", DocumentRequest{Title: "t"})
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decode[dao.Document](t, rec)

	empty := ""
	rec = ts.do(t, http.MethodPatch, "/api/documents/"+doc.ID.String()+"/", UpdateDocumentRequest{Title: &empty})
	assertDefinedError(t, rec, apierrors.ErrDocumentTitleRequired)

	rec = ts.do(t, http.MethodGet, "/api/documents/"+doc.ID.String()+"/revisions/x/", nil)
	assertDefinedError(t, rec, apierrors.ErrDocumentRequestValidate)

	t.Run("stale version", func(t *testing.T) {
		title, seen := "v2", 1
		rec := ts.do(t, http.MethodPatch, "/api/documents/"+doc.ID.String()+"/", UpdateDocumentRequest{Title: &title, Version: &seen})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 2, decode[dao.Document](t, rec).Version)

		title = "v3"
		rec = ts.do(t, http.MethodPatch, "/api/documents/"+doc.ID.String()+"/", UpdateDocumentRequest{Title: &title, Version: &seen})
		assertDefinedError(t, rec, apierrors.ErrDocumentVersionConflict)

		got, err := dao.GetDocument(ts.db, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "v2", got.Title)
	})
}

func TestDocumentRules(t *testing.T) {
	ts := newTestServer(t)

	script := `
	function BeforeSave(params, value)
		print("checking " .. value.text)
		if string.find(value.text, "forbidden") then
			return { status = false, error = "forbidden word" }
		end
		return { status = true }
	end
	`
	content := editor.Create("ok")
	rec := ts.do(t, http.MethodPost, "/api/documents/", DocumentRequest{Title: "t", Content: &content, RulesScript: &script})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[dao.Document](t, rec)
	base := "/api/documents/" + doc.ID.String() + "/"

	bad := editor.Create("forbidden text")
	rec = ts.do(t, http.MethodPatch, base, UpdateDocumentRequest{Content: &bad})
	assertDefinedError(t, rec, apierrors.ErrRuleRejected)
	assert.Contains(t, rec.Body.String(), "forbidden word")

	rec = ts.do(t, http.MethodGet, base, nil)
	assert.Equal(t, 1, decode[dao.Document](t, rec).Version)

	rec = ts.do(t, http.MethodGet, base+"rules-log/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[struct {
		Count  int64          `json:"count"`
		Result []dao.RulesLog `json:"result"`
	}](t, rec)
	assert.EqualValues(t, 4, logs.Count)

	types := make(map[string]int)
	for _, l := range logs.Result {
		types[l.Type]++
	}
	assert.Equal(t, map[string]int{"success": 1, "fail": 1, "print": 2}, types)

	t.Run("script error", func(t *testing.T) {
		broken := "function BeforeSave(params, value) return nil end"
		rec := ts.do(t, http.MethodPatch, base, UpdateDocumentRequest{RulesScript: &broken})
		require.Equal(t, http.StatusOK, rec.Code)

		next := editor.Create("next")
		rec = ts.do(t, http.MethodPatch, base, UpdateDocumentRequest{Content: &next})
		assertDefinedError(t, rec, apierrors.ErrRuleScriptFail)
	})
}

func TestVersionHealthMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/version/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[map[string]any](t, rec)
	assert.Equal(t, "test", info["version"])
	assert.EqualValues(t, limiter.Limiter.GetTextLimit(uuid.Nil), info["max_text_length"])

	rec = ts.do(t, http.MethodGet, "/api/_health/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/convert/html/", ConvertRequest{Value: editor.Create("a")})
	require.Equal(t, http.StatusOK, rec.Code)

	families, err := ts.reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["richtext_conversions_total"])
	assert.True(t, names["richtext_requests_total"])
}
