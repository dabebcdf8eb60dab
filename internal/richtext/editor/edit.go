package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/edtypes"
)

// Create возвращает значение без форматов для обычного текста.
func Create(text string) Value {
	return Value{
		Text:    text,
		Formats: make([][]Format, utf8.RuneCountInString(text)),
	}
}

// sliceFormats копирует стеки [start, end). Недостающие стеки считаются пустыми,
// длина результата всегда end-start.
func sliceFormats(formats [][]Format, start, end int) [][]Format {
	if end < start {
		end = start
	}
	res := make([][]Format, end-start)
	for i := start; i < end; i++ {
		if i >= 0 && i < len(formats) {
			res[i-start] = edtypes.CloneStack(formats[i])
		}
	}
	return res
}

func clampRange(v Value, start, end int) (int, int) {
	n := v.Len()
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)
	if end < start {
		start, end = end, start
	}
	return start, end
}

func substr(text string, start, end int) string {
	runes := []rune(text)
	return string(runes[start:end])
}

// ApplyFormat применяет формат к символам [start, end). Формат того же типа заменяется на месте,
// иначе добавляется во внутреннюю позицию стека.
func ApplyFormat(v Value, f Format, start, end int) Value {
	start, end = clampRange(v, start, end)
	res := v.Clone()
	res.Formats = sliceFormats(v.Formats, 0, v.Len())

	for i := start; i < end; i++ {
		stack := res.Formats[i]
		replaced := false
		for j := range stack {
			if stack[j].Type == f.Type {
				stack[j] = f.Clone()
				replaced = true
				break
			}
		}
		if !replaced {
			stack = append(stack, f.Clone())
		}
		res.Formats[i] = stack
	}
	return res
}

// RemoveFormat убирает формат указанного типа из символов [start, end).
func RemoveFormat(v Value, formatType string, start, end int) Value {
	start, end = clampRange(v, start, end)
	res := v.Clone()
	res.Formats = sliceFormats(v.Formats, 0, v.Len())

	for i := start; i < end; i++ {
		stack := res.Formats[i][:0]
		for _, f := range res.Formats[i] {
			if f.Type != formatType {
				stack = append(stack, f)
			}
		}
		if len(stack) == 0 {
			stack = nil
		}
		res.Formats[i] = stack
	}
	return res
}

// ToggleFormat снимает формат, если он есть у всех символов диапазона, иначе применяет его.
func ToggleFormat(v Value, f Format, start, end int) Value {
	start, end = clampRange(v, start, end)
	if start == end {
		return v.Clone()
	}
	for i := start; i < end; i++ {
		if !hasFormat(v.FormatsAt(i), f.Type) {
			return ApplyFormat(v, f, start, end)
		}
	}
	return RemoveFormat(v, f.Type, start, end)
}

func hasFormat(stack []Format, formatType string) bool {
	_, ok := findFormat(stack, formatType)
	return ok
}

func findFormat(stack []Format, formatType string) (Format, bool) {
	for _, f := range stack {
		if f.Type == formatType {
			return f, true
		}
	}
	return Format{}, false
}

// GetActiveFormat возвращает формат типа formatType, активный в выделении. Для свернутого
// выделения берется символ перед кареткой, для диапазона формат должен покрывать все символы.
func GetActiveFormat(v Value, formatType string) (Format, bool) {
	if !v.HasSelection() {
		return Format{}, false
	}
	start, end := clampRange(v, *v.Start, *v.End)

	if start == end {
		return findFormat(v.FormatsAt(start-1), formatType)
	}

	first, ok := findFormat(v.FormatsAt(start), formatType)
	if !ok {
		return Format{}, false
	}
	for i := start + 1; i < end; i++ {
		if !hasFormat(v.FormatsAt(i), formatType) {
			return Format{}, false
		}
	}
	return first, true
}

// Insert заменяет диапазон [start, end) значением toInsert. Выделение результата
// сворачивается сразу после вставки.
func Insert(v Value, toInsert Value, start, end int) Value {
	start, end = clampRange(v, start, end)
	n := v.Len()
	insertLen := toInsert.Len()

	res := Value{
		Text: substr(v.Text, 0, start) + toInsert.Text + substr(v.Text, end, n),
	}
	res.Formats = make([][]Format, 0, start+insertLen+n-end)
	res.Formats = append(res.Formats, sliceFormats(v.Formats, 0, start)...)
	res.Formats = append(res.Formats, sliceFormats(toInsert.Formats, 0, insertLen)...)
	res.Formats = append(res.Formats, sliceFormats(v.Formats, end, n)...)

	res.Start = Offset(start + insertLen)
	res.End = Offset(start + insertLen)
	return res
}

// InsertObject вставляет встроенный объект на место диапазона [start, end).
func InsertObject(v Value, f Format, start, end int) Value {
	f = f.Clone()
	f.Object = true
	obj := Value{
		Text:    string(ObjectReplacementCharacter),
		Formats: [][]Format{{f}},
	}
	return Insert(v, obj, start, end)
}

func Remove(v Value, start, end int) Value {
	return Insert(v, Create(""), start, end)
}

// Slice возвращает копию диапазона [start, end) без выделения.
func Slice(v Value, start, end int) Value {
	start, end = clampRange(v, start, end)
	return Value{
		Text:    substr(v.Text, start, end),
		Formats: sliceFormats(v.Formats, start, end),
	}
}

// Concat склеивает значения. Выделение не переносится.
func Concat(values ...Value) Value {
	var sb strings.Builder
	var formats [][]Format
	for _, v := range values {
		sb.WriteString(v.Text)
		formats = append(formats, sliceFormats(v.Formats, 0, v.Len())...)
	}
	return Value{Text: sb.String(), Formats: formats}
}

// Join склеивает значения через разделитель без форматов.
func Join(values []Value, separator string) Value {
	parts := make([]Value, 0, len(values)*2)
	for i, v := range values {
		if i > 0 {
			parts = append(parts, Create(separator))
		}
		parts = append(parts, v)
	}
	return Concat(parts...)
}

func GetTextContent(v Value) string {
	return v.Text
}

func IsCollapsed(v Value) bool {
	return v.HasSelection() && *v.Start == *v.End
}

func IsEmpty(v Value) bool {
	return v.Text == ""
}

// IsEmptyLine сообщает, пуста ли строка multiline-значения, в которой стоит каретка.
func IsEmptyLine(v Value) bool {
	if IsEmpty(v) {
		return true
	}
	if !IsCollapsed(v) {
		return false
	}
	runes := []rune(v.Text)
	start := min(max(*v.Start, 0), len(runes))

	before := start == 0 || runes[start-1] == LineSeparator
	after := start == len(runes) || runes[start] == LineSeparator
	return before && after
}
