package tiptap

import (
	"encoding/json"
	"log/slog"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
)

// Serialize сериализует значение в TipTap JSON. При multilineTag "li" строки становятся
// элементами маркированного списка, при любом другом непустом теге - параграфами.
func Serialize(v editor.Value, multilineTag string) ([]byte, error) {
	return json.Marshal(SerializeDocument(v, multilineTag))
}

// SerializeDocument строит документ TipTap без кодирования в JSON.
func SerializeDocument(v editor.Value, multilineTag string) TipTapDocument {
	lines := []editor.Value{v}
	if multilineTag != "" {
		lines = editor.SplitValue(v, string(editor.LineSeparator))
	}

	paragraphs := make([]TipTapNode, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, serializeParagraph(line))
	}

	doc := TipTapDocument{Type: "doc"}
	if multilineTag == "li" {
		list := TipTapNode{
			Type:    "bulletList",
			Content: make([]TipTapNode, 0, len(paragraphs)),
		}
		for _, p := range paragraphs {
			list.Content = append(list.Content, TipTapNode{
				Type:    "listItem",
				Content: []TipTapNode{p},
			})
		}
		doc.Content = []TipTapNode{list}
	} else {
		doc.Content = paragraphs
	}
	return doc
}

// serializeParagraph группирует символы с одинаковыми стеками в текстовые ноды.
func serializeParagraph(v editor.Value) TipTapNode {
	node := TipTapNode{Type: "paragraph"}
	runes := []rune(v.Text)

	for i := 0; i < len(runes); {
		stack := v.FormatsAt(i)

		switch runes[i] {
		case '\n':
			node.Content = append(node.Content, TipTapNode{
				Type:  "hardBreak",
				Marks: serializeMarks(stack),
			})
			i++
		case editor.ObjectReplacementCharacter:
			if obj := serializeObject(stack); obj != nil {
				node.Content = append(node.Content, *obj)
			}
			i++
		default:
			j := i + 1
			for j < len(runes) && !isSpecial(runes[j]) && editor.StacksEqual(stack, v.FormatsAt(j)) {
				j++
			}
			node.Content = append(node.Content, TipTapNode{
				Type:  "text",
				Text:  string(runes[i:j]),
				Marks: serializeMarks(stack),
			})
			i = j
		}
	}

	return node
}

func isSpecial(r rune) bool {
	return r == '\n' || r == editor.ObjectReplacementCharacter
}

// serializeObject берет самый внутренний объектный формат стека.
func serializeObject(stack []editor.Format) *TipTapNode {
	for i := len(stack) - 1; i >= 0; i-- {
		f := stack[i]
		if !f.Object {
			continue
		}
		return &TipTapNode{
			Type:  f.Type,
			Attrs: attributesToAttrs(f.Attributes),
			Marks: serializeMarks(stack),
		}
	}
	slog.Warn("Object character without object format")
	return nil
}
