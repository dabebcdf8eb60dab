package tiptap

import (
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
)

// Названия marks TipTap, отличающиеся от типов форматов.
var markToFormatType = map[string]string{
	"strike": "strikethrough",
}

var formatTypeToMark = map[string]string{
	"strikethrough": "strike",
}

// markToFormat преобразует mark в формат. Неизвестные marks сохраняют свое имя.
func markToFormat(mark TipTapMark) editor.Format {
	formatType := mark.Type
	if t, ok := markToFormatType[mark.Type]; ok {
		formatType = t
	}
	return editor.Format{
		Type:       formatType,
		Attributes: attrsToAttributes(mark.Attrs),
	}
}

func formatToMark(f editor.Format) TipTapMark {
	markType := f.Type
	if t, ok := formatTypeToMark[f.Type]; ok {
		markType = t
	}
	return TipTapMark{
		Type:  markType,
		Attrs: attributesToAttrs(f.Attributes),
	}
}

// applyMarks возвращает стек форматов для текстового узла.
func applyMarks(marks []TipTapMark) []editor.Format {
	if len(marks) == 0 {
		return nil
	}
	stack := make([]editor.Format, 0, len(marks))
	for _, mark := range marks {
		stack = append(stack, markToFormat(mark))
	}
	return stack
}

// serializeMarks переводит стек в marks, объектные форматы пропускаются.
func serializeMarks(stack []editor.Format) []TipTapMark {
	var marks []TipTapMark
	for _, f := range stack {
		if f.Object {
			continue
		}
		marks = append(marks, formatToMark(f))
	}
	return marks
}
