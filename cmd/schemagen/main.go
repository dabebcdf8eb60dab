// Получает имена моделей DAO, предназначенных для миграций, и обновляет список dao.Models.
//
// Моделью считается структура пакета dao с методом TableName. Структуры, в комментарии
// которых есть "-migration", пропускаются.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/doc"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

var modelsRe = regexp.MustCompile(`var\s*Models\s*=\s*\[\]any{.*}`)

// GetDAOModelsForMigration возвращает модели пакета в формате `&Name{}` в порядке объявления.
func GetDAOModelsForMigration(dirPath string) (models []string, err error) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dirPath, func(fi os.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go")
	}, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	for _, pkg := range pkgs {
		d := doc.New(pkg, dirPath, doc.AllDecls|doc.PreserveAST)

		for _, t := range d.Types {
			if _, ok := t.Decl.Specs[0].(*ast.TypeSpec).Type.(*ast.StructType); !ok {
				continue
			}
			if strings.Contains(t.Doc, "-migration") {
				slog.Warn("Skip struct migration", "name", t.Name)
				continue
			}
			if !hasMethod(t, "TableName") {
				continue
			}
			models = append(models, fmt.Sprintf("&%s{}", t.Name))
		}
	}
	return
}

func hasMethod(t *doc.Type, name string) bool {
	for _, m := range t.Methods {
		if m.Name == name {
			return true
		}
	}
	return false
}

// replaceModels подставляет список моделей в объявление `var Models = []any{...}`.
func replaceModels(src []byte, models []string) ([]byte, bool) {
	if !modelsRe.Match(src) {
		return src, false
	}
	decl := fmt.Sprintf("var Models = []any{%s}", strings.Join(models, ", "))
	return modelsRe.ReplaceAll(src, []byte(decl)), true
}

func main() {
	daoDir := flag.String("dao", "internal/richtext/dao/", "Path of dao package")
	target := flag.String("target", "internal/richtext/dao/dao.go", "File with Models declaration")
	flag.Parse()

	models, err := GetDAOModelsForMigration(*daoDir)
	if err != nil {
		slog.Error("Parse dao package", "err", err)
		os.Exit(1)
	}
	slog.Info("Models for migration", "models", strings.Join(models, ", "))

	src, err := os.ReadFile(*target)
	if err != nil {
		slog.Error("Read target file", "err", err)
		os.Exit(1)
	}

	res, ok := replaceModels(src, models)
	if !ok {
		slog.Error("Models declaration not found", "file", *target)
		os.Exit(1)
	}
	if err := os.WriteFile(*target, res, 0644); err != nil {
		slog.Error("Write target file", "err", err)
		os.Exit(1)
	}
}
