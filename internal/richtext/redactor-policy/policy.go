// Определяет политики безопасности для HTML, поступающего в сервис форматированного текста.
// Политики пропускают только теги и атрибуты, которые умеет представлять модель значения.
//
// Основные возможности:
//   - Политика RichTextPolicy на основе UGCPolicy с разрешенными тегами форматов.
//   - Сохранение служебного атрибута data-mce-bogus для последующей очистки мостом TinyMCE.
//   - Политика StripTagsPolicy для получения текста без разметки.
//   - Получение текстового превью HTML.
package policy

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var RichTextPolicy *bluemonday.Policy = bluemonday.UGCPolicy()

func init() {
	colorRegexp := regexp.MustCompile(`^(#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|rgb\((\d+),\s*(\d+),\s*(\d+)\)|inherit)$`)
	sizeRegexp := regexp.MustCompile(`^(\d+(px|em|rem|pt|%)?|auto|inherit)$`)
	bogusRegexp := regexp.MustCompile(`^(all|1)?$`)

	RichTextPolicy.AllowElements("u", "s", "mark", "code", "sub", "sup", "br")
	RichTextPolicy.AllowAttrs("data-mce-bogus").Matching(bogusRegexp).Globally()
	RichTextPolicy.AllowAttrs("data-color", "style").OnElements("mark", "span")
	RichTextPolicy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")

	RichTextPolicy.AllowStyles("color", "background-color").Matching(colorRegexp).Globally()
	RichTextPolicy.AllowStyles("width", "height").Matching(sizeRegexp).OnElements("img")
}

// Sanitize пропускает HTML через RichTextPolicy.
func Sanitize(htmlContent string) string {
	return RichTextPolicy.Sanitize(htmlContent)
}

// PlainText убирает разметку, строки и элементы списка разделяются переводом строки.
func PlainText(htmlContent string) string {
	res := strings.ReplaceAll(htmlContent, "<p>", "\n")
	res = strings.ReplaceAll(res, "<li>", "\n")
	res = strings.ReplaceAll(res, "<br/>", "\n")
	res = strings.ReplaceAll(res, "<br>", "\n")
	res = StripTagsPolicy.Sanitize(res)
	return strings.TrimSpace(html.UnescapeString(res))
}
