// Генерация документации об ошибках API в формате Markdown.
// Читает файл с определениями apierrors.DefinedError и строит таблицу кодов ошибок,
// сгруппированную по разрядам кода (1xxx значения, 2xxx преобразования и т.д.).
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"
)

var statusCodes = map[string]int{
	"StatusOK":                    http.StatusOK,
	"StatusCreated":               http.StatusCreated,
	"StatusBadRequest":            http.StatusBadRequest,
	"StatusUnauthorized":          http.StatusUnauthorized,
	"StatusForbidden":             http.StatusForbidden,
	"StatusNotFound":              http.StatusNotFound,
	"StatusConflict":              http.StatusConflict,
	"StatusRequestEntityTooLarge": http.StatusRequestEntityTooLarge,
	"StatusUnprocessableEntity":   http.StatusUnprocessableEntity,
	"StatusTooManyRequests":       http.StatusTooManyRequests,
	"StatusInternalServerError":   http.StatusInternalServerError,
	"StatusServiceUnavailable":    http.StatusServiceUnavailable,
}

var groupTitles = map[int]string{
	1: "Ошибки значений",
	2: "Ошибки преобразования и правил",
	3: "Ошибки документов",
	5: "Общие ошибки",
}

type apiError struct {
	Name   string
	Code   int
	Status string
	Err    string
	RuErr  string
}

func main() {
	errorsFile := flag.String("src", "internal/richtext/apierrors/apierrors.go", "Path of apierrors.go")
	outputMd := flag.String("out", "api_errors.md", "Path to output md")
	flag.Parse()

	slog.Info("Generate api errors docs", "src", *errorsFile, "out", *outputMd)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, *errorsFile, nil, 0)
	if err != nil {
		slog.Error("Parse errors file", "err", err)
		os.Exit(1)
	}

	out, err := os.Create(*outputMd)
	if err != nil {
		slog.Error("Create output file", "err", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeDocs(out, collectErrors(f)); err != nil {
		slog.Error("Generate docs fail", "err", err)
		os.Exit(1)
	}
	slog.Info("Docs generated")
}

// collectErrors находит в файле все переменные вида DefinedError{...} и возвращает их по возрастанию кода.
func collectErrors(f *ast.File) []apiError {
	var res []apiError
	ast.Inspect(f, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, id := range spec.Names {
			if i >= len(spec.Values) {
				break
			}
			lit, ok := spec.Values[i].(*ast.CompositeLit)
			if !ok || fmt.Sprint(lit.Type) != "DefinedError" {
				continue
			}
			res = append(res, parseDefinedError(id.Name, lit))
		}
		return false
	})

	sort.Slice(res, func(i, j int) bool { return res[i].Code < res[j].Code })
	return res
}

func parseDefinedError(name string, lit *ast.CompositeLit) apiError {
	e := apiError{Name: name, Status: "StatusBadRequest"}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		switch fmt.Sprint(kv.Key) {
		case "Code":
			if v, ok := kv.Value.(*ast.BasicLit); ok {
				e.Code, _ = strconv.Atoi(v.Value)
			}
		case "StatusCode":
			if sel, ok := kv.Value.(*ast.SelectorExpr); ok {
				e.Status = sel.Sel.Name
			}
		case "Err":
			e.Err = stringValue(kv.Value)
		case "RuErr":
			e.RuErr = stringValue(kv.Value)
		}
	}
	return e
}

// stringValue склеивает строковые литералы, в том числе записанные через "+".
func stringValue(expr ast.Expr) string {
	switch v := expr.(type) {
	case *ast.BasicLit:
		s, err := strconv.Unquote(v.Value)
		if err != nil {
			return strings.Trim(v.Value, "\"`")
		}
		return s
	case *ast.BinaryExpr:
		return stringValue(v.X) + stringValue(v.Y)
	case *ast.ParenExpr:
		return stringValue(v.X)
	}
	return ""
}

func statusText(name string) string {
	code, ok := statusCodes[name]
	if !ok {
		return md.Italic(name)
	}
	return fmt.Sprintf("%d %s", code, md.Italic(name))
}

func writeDocs(w io.Writer, errs []apiError) error {
	doc := md.NewMarkdown(w).
		H1("Перечень кодов ошибок").
		PlainText("Ошибки возвращаются в теле ответа в виде JSON с полями `code`, `error` и `ru_error`. " +
			"Сообщения с `%s` дополняются подробностями.")

	var groups []int
	byGroup := make(map[int][][]string)
	for _, e := range errs {
		g := e.Code / 1000
		if _, ok := byGroup[g]; !ok {
			groups = append(groups, g)
		}
		byGroup[g] = append(byGroup[g], []string{
			md.Bold(strconv.Itoa(e.Code)),
			statusText(e.Status),
			md.Code(e.Name),
			md.Code(e.Err),
			md.Code(e.RuErr),
		})
	}

	for _, g := range groups {
		title, ok := groupTitles[g]
		if !ok {
			title = fmt.Sprintf("Коды %dxxx", g)
		}
		doc.H2(title).CustomTable(md.TableSet{
			Header: []string{"Код", "HTTP код", "Имя", "Сообщение", "Сообщение на русском"},
			Rows:   byGroup[g],
		}, md.TableOptions{
			AutoWrapText: false,
		})
	}
	return doc.Build()
}
