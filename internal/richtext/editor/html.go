package editor

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Position - позиция каретки в DOM: текстовый узел и смещение в рунах внутри него,
// либо элемент и индекс дочернего узла.
type Position struct {
	Node   *html.Node
	Offset int
}

type Selection struct {
	Start *Position
	End   *Position
}

// DOMBuilder строит дерево из узлов golang.org/x/net/html.
type DOMBuilder struct {
	Registry *FormatRegistry

	types map[*html.Node]string
}

func NewDOMBuilder(reg *FormatRegistry) *DOMBuilder {
	return &DOMBuilder{
		Registry: reg,
		types:    make(map[*html.Node]string),
	}
}

// CreateEmpty с пустым тегом создает узел-документ, который html.Render выводит без обертки.
func (b *DOMBuilder) CreateEmpty(tag string) *html.Node {
	if tag == "" {
		return &html.Node{Type: html.DocumentNode}
	}
	return newElement(tag, nil)
}

func (b *DOMBuilder) CreateText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func (b *DOMBuilder) CreateElement(f Format) *html.Node {
	attrs := make([]html.Attribute, 0, len(f.Attributes))
	for _, a := range f.Attributes {
		attrs = append(attrs, html.Attribute{Key: a.Key, Val: a.Val})
	}
	el := newElement(b.Registry.TagName(f.Type), attrs)
	b.types[el] = f.Type
	return el
}

func (b *DOMBuilder) Append(parent, child *html.Node) *html.Node {
	parent.AppendChild(child)
	return child
}

func (b *DOMBuilder) GetLastChild(n *html.Node) (*html.Node, bool) {
	return n.LastChild, n.LastChild != nil
}

func (b *DOMBuilder) GetParent(n *html.Node) (*html.Node, bool) {
	return n.Parent, n.Parent != nil
}

func (b *DOMBuilder) GetType(n *html.Node) string {
	return b.types[n]
}

func (b *DOMBuilder) IsText(n *html.Node) bool {
	return n.Type == html.TextNode
}

func (b *DOMBuilder) GetText(n *html.Node) string {
	return n.Data
}

func (b *DOMBuilder) Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	delete(b.types, n)
}

func (b *DOMBuilder) AppendText(n *html.Node, text string) {
	n.Data += text
}

func newElement(tag string, attrs []html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// ToDOM строит DOM-дерево значения и возвращает позиции начала и конца выделения.
func ToDOM(v Value, multilineTag string, reg *FormatRegistry) (*html.Node, Selection) {
	var sel Selection
	tree := ToTree(v, multilineTag, Settings[*html.Node]{
		Builder: NewDOMBuilder(reg),
		OnStartIndex: func(_, pointer *html.Node, _ int) {
			sel.Start = caretPosition(pointer)
		},
		OnEndIndex: func(_, pointer *html.Node, _ int) {
			sel.End = caretPosition(pointer)
		},
	})
	return tree, sel
}

func caretPosition(pointer *html.Node) *Position {
	if pointer.Type == html.TextNode {
		return &Position{Node: pointer, Offset: utf8.RuneCountInString(pointer.Data)}
	}
	n := 0
	for c := pointer.FirstChild; c != nil; c = c.NextSibling {
		n++
	}
	return &Position{Node: pointer, Offset: n}
}

// ToHTML сериализует значение в HTML-строку.
func ToHTML(v Value, multilineTag string, reg *FormatRegistry) (string, error) {
	tree, _ := ToDOM(v, multilineTag, reg)
	return RenderHTML(tree)
}

// RenderHTML выводит дочерние узлы root. Дерево после вызова не содержит якорей внутри пустых элементов.
func RenderHTML(root *html.Node) (string, error) {
	pruneVoidElements(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Path возвращает путь от root до узла позиции (индексы дочерних узлов) и смещение в нем.
// Позиция внутри пустого элемента вроде img переносится в родителя сразу за этим элементом.
func (p *Position) Path(root *html.Node) ([]int, int) {
	node, offset := p.Node, p.Offset
	for a := p.Node; a != nil && a != root; a = a.Parent {
		if isVoidElement(a) && a.Parent != nil {
			node, offset = a.Parent, childIndex(a)+1
		}
	}

	var path []int
	for n := node; n != nil && n != root; n = n.Parent {
		path = append(path, childIndex(n))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, offset
}

func childIndex(n *html.Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "source": {}, "track": {}, "wbr": {},
}

func isVoidElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	_, ok := voidElements[n.Data]
	return ok
}

// pruneVoidElements удаляет якорные узлы внутри пустых элементов, html.Render на них падает.
func pruneVoidElements(n *html.Node) {
	if isVoidElement(n) {
		for c := n.FirstChild; c != nil; c = n.FirstChild {
			n.RemoveChild(c)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		pruneVoidElements(c)
	}
}
