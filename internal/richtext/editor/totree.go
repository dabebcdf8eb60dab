package editor

import (
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/edtypes"
)

const (
	// NoMultilineIndex передается в обработчики выделения вне multiline-режима.
	NoMultilineIndex = -1
	// LineBreakType - тип объекта, которым заменяется символ '\n'.
	LineBreakType = "br"
)

// TreeBuilder - набор операций, через которые ToTree строит дерево, не зная его устройства.
// Узлы N полностью принадлежат реализации (DOM-узлы, markdown-узлы и т.п.).
type TreeBuilder[N any] interface {
	// CreateEmpty создает пустой корень, tag может быть пустым.
	CreateEmpty(tag string) N
	CreateText(text string) N
	CreateElement(f Format) N
	// Append присоединяет child к parent и возвращает присоединенный узел.
	Append(parent, child N) N
	GetLastChild(node N) (N, bool)
	GetParent(node N) (N, bool)
	// GetType возвращает тип формата, создавшего узел, или пустую строку.
	GetType(node N) string
	IsText(node N) bool
	GetText(node N) string
	Remove(node N)
	AppendText(node N, text string)
}

// Settings - параметры построения дерева.
type Settings[N any] struct {
	Builder TreeBuilder[N]
	// Tag - тег корня одного (не multiline) значения.
	Tag string

	// OnStartIndex и OnEndIndex вызываются в позиции начала и конца выделения.
	OnStartIndex func(tree, pointer N, multilineIndex int)
	OnEndIndex   func(tree, pointer N, multilineIndex int)
}

// ToTree превращает значение в дерево. Если задан multilineTag, значение делится
// по LineSeparator и каждая строка становится дочерним узлом с этим тегом.
//
// Корректность стеков форматов не проверяется (см. Validate): для некорректного
// значения строится то дерево, которое примет Builder.
func ToTree[N any](v Value, multilineTag string, s Settings[N]) N {
	if multilineTag != "" {
		tree := s.Builder.CreateEmpty("")
		for i, piece := range SplitValue(v, string(LineSeparator)) {
			s.Builder.Append(tree, buildTree(piece, multilineTag, i, s))
		}
		return tree
	}

	return buildTree(v, s.Tag, NoMultilineIndex, s)
}

func buildTree[N any](v Value, tag string, multilineIndex int, s Settings[N]) N {
	b := s.Builder
	text := []rune(v.Text)

	tree := b.CreateEmpty(tag)
	b.Append(tree, b.CreateText(""))

	parentOf := func(node N, fallback N) N {
		if p, ok := b.GetParent(node); ok {
			return p
		}
		return fallback
	}

	var prevFormats []Format
	for i := 0; i <= len(text); i++ {
		formats := v.FormatsAt(i)

		parent := tree
		pointer, _ := b.GetLastChild(tree)

		continuing := true
		for depth, format := range formats {
			if continuing && canContinue(b, pointer, format, prevFormats, depth) {
				parent = pointer
				if last, ok := b.GetLastChild(pointer); ok {
					pointer = last
				}
				continue
			}
			continuing = false

			parent = parentOf(pointer, parent)
			node := b.Append(parent, b.CreateElement(format))
			dropEmptyText(b, pointer)

			// Объект получает пустой текстовый узел-якорь внутри себя
			pointer = b.Append(node, b.CreateText(""))
			if !format.Object {
				parent = node
			}
		}

		if i == 0 {
			if v.Start != nil && *v.Start == 0 && s.OnStartIndex != nil {
				s.OnStartIndex(tree, pointer, multilineIndex)
			}
			if v.End != nil && *v.End == 0 && s.OnEndIndex != nil {
				s.OnEndIndex(tree, pointer, multilineIndex)
			}
		}

		if i == len(text) {
			break
		}

		switch character := text[i]; {
		case character == edtypes.ObjectReplacementCharacter:
			// Место объекта уже занято его форматом
		case character == '\n':
			parent = parentOf(pointer, parent)
			dropEmptyText(b, pointer)
			b.Append(parent, b.CreateElement(Format{Type: LineBreakType, Object: true}))
			pointer = b.Append(parent, b.CreateText(""))
		case b.IsText(pointer):
			b.AppendText(pointer, string(character))
		default:
			pointer = b.Append(parentOf(pointer, parent), b.CreateText(string(character)))
		}

		if v.Start != nil && *v.Start == i+1 && s.OnStartIndex != nil {
			s.OnStartIndex(tree, pointer, multilineIndex)
		}
		if v.End != nil && *v.End == i+1 && s.OnEndIndex != nil {
			s.OnEndIndex(tree, pointer, multilineIndex)
		}

		prevFormats = formats
	}

	return tree
}

// canContinue решает, можно ли продолжить уже открытый узел вместо создания нового.
// Объекты не продолжаются никогда, остальные форматы - только если предыдущий символ
// нес равный формат на той же глубине стека.
func canContinue[N any](b TreeBuilder[N], pointer N, format Format, prevFormats []Format, depth int) bool {
	if format.Object || depth >= len(prevFormats) {
		return false
	}
	if b.IsText(pointer) || b.GetType(pointer) != format.Type {
		return false
	}
	return prevFormats[depth].Equal(format)
}

func dropEmptyText[N any](b TreeBuilder[N], node N) {
	if b.IsText(node) && b.GetText(node) == "" {
		if _, ok := b.GetParent(node); ok {
			b.Remove(node)
		}
	}
}
