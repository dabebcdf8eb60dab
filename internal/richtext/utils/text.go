package utils

import (
	"log/slog"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

var minifier *minify.M = minify.New()

func init() {
	minifier.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
}

// MinifyHTML сжимает разметку. При ошибке возвращается исходная строка.
func MinifyHTML(body string) string {
	res, err := minifier.String("text/html", body)
	if err != nil {
		slog.Warn("Error minify html", "err", err)
		return body
	}
	return res
}

func Substr(input string, start int, length int) string {
	asRunes := []rune(input)

	if start >= len(asRunes) {
		return ""
	}

	if start+length > len(asRunes) {
		length = len(asRunes) - start
	}

	return string(asRunes[start : start+length])
}
