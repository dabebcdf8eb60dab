package tiptap

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/edtypes"
)

// ParseJSON парсит JSON контент TipTap редактора в значение.
// Вторым результатом возвращается multiline-тег: "li" для списков, "p" для нескольких
// параграфов и пустая строка для одного параграфа.
func ParseJSON(r io.Reader) (editor.Value, string, error) {
	var doc TipTapDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return editor.Value{}, "", err
	}
	v, tag := ParseDocument(doc)
	return v, tag, nil
}

func ParseDocument(doc TipTapDocument) (editor.Value, string) {
	var lines []editor.Value
	multilineTag := ""

	for _, node := range doc.Content {
		switch node.Type {
		case "paragraph":
			lines = append(lines, parseParagraph(node))
		case "bulletList", "orderedList":
			multilineTag = "li"
			lines = append(lines, parseList(node)...)
		default:
			slog.Warn("Unknown node type", "type", node.Type)
		}
	}

	if len(lines) == 0 {
		return editor.Create(""), multilineTag
	}
	if multilineTag == "" && len(lines) > 1 {
		multilineTag = "p"
	}
	return editor.Join(lines, string(editor.LineSeparator)), multilineTag
}

func parseList(node TipTapNode) []editor.Value {
	var lines []editor.Value
	for _, item := range node.Content {
		if item.Type != "listItem" {
			slog.Warn("Unknown list child type", "type", item.Type)
			continue
		}
		for _, child := range item.Content {
			if child.Type == "paragraph" {
				lines = append(lines, parseParagraph(child))
			}
		}
	}
	return lines
}

// parseParagraph преобразует параграф TipTap в значение.
func parseParagraph(node TipTapNode) editor.Value {
	var v editor.Value
	var text []rune

	for _, child := range node.Content {
		stack := applyMarks(child.Marks)

		switch child.Type {
		case "text":
			for _, r := range child.Text {
				text = append(text, r)
				v.Formats = append(v.Formats, edtypes.CloneStack(stack))
			}
		case "hardBreak":
			text = append(text, '\n')
			v.Formats = append(v.Formats, stack)
		default:
			// Любой другой inline-узел считается встроенным объектом
			text = append(text, editor.ObjectReplacementCharacter)
			v.Formats = append(v.Formats, append(stack, editor.Format{
				Type:       child.Type,
				Attributes: attrsToAttributes(child.Attrs),
				Object:     true,
			}))
		}
	}

	v.Text = string(text)
	if v.Formats == nil {
		v.Formats = [][]editor.Format{}
	}
	return v
}
