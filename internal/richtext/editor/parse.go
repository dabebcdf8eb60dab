package editor

import (
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/edtypes"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/tinymce"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML разбирает HTML-фрагмент в значение. Служебная разметка TinyMCE удаляется до разбора.
func ParseHTML(r io.Reader, multilineTag string, reg *FormatRegistry) (Value, error) {
	nodes, err := html.ParseFragment(r, &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return Value{}, err
	}

	return FromNode(cleanRoot(nodes), multilineTag, reg, nil), nil
}

// ErrSelectorNotFound селектор не нашел ни одного элемента.
var ErrSelectorNotFound = errors.New("selector matched no elements")

// SelectHTML возвращает внутреннюю разметку первого элемента HTML-документа, подходящего под CSS селектор.
func SelectHTML(r io.Reader, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", ErrSelectorNotFound
	}
	return sel.Html()
}

// cleanRoot собирает очищенные от служебной разметки копии узлов под новым корнем.
func cleanRoot(nodes []*html.Node) *html.Node {
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		for _, clean := range tinymce.FromDOM(n) {
			root.AppendChild(clean)
		}
	}
	return root
}

// FromNode строит значение из дочерних узлов root. Если задан sel, позиции из DOM
// переводятся в смещения. Позиция внутри объекта соответствует смещению сразу после него.
func FromNode(root *html.Node, multilineTag string, reg *FormatRegistry, sel *Selection) Value {
	p := &domParser{reg: reg, sel: sel}

	if multilineTag == "" {
		p.walkChildren(root, nil)
		return p.value()
	}

	line := 0
	var loose []*html.Node
	flushLoose := func() {
		if len(loose) == 0 {
			return
		}
		p.startLine(line)
		for _, n := range loose {
			p.walk(n, nil)
		}
		loose = nil
		line++
	}

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		p.checkPosition(root, c)
		if c.Type == html.ElementNode && c.Data == multilineTag {
			flushLoose()
			p.startLine(line)
			p.walkChildren(c, nil)
			line++
			continue
		}
		if c.Type == html.TextNode && c.Data == "" {
			continue
		}
		loose = append(loose, c)
	}
	flushLoose()
	p.checkPosition(root, nil)

	return p.value()
}

type domParser struct {
	reg *FormatRegistry
	sel *Selection

	text    []rune
	formats [][]Format

	start *int
	end   *int
}

func (p *domParser) value() Value {
	return Value{
		Text:    string(p.text),
		Formats: p.formats,
		Start:   p.start,
		End:     p.end,
	}
}

func (p *domParser) startLine(line int) {
	if line > 0 {
		p.push(edtypes.LineSeparator, nil)
	}
}

func (p *domParser) push(r rune, stack []Format) {
	p.text = append(p.text, r)
	p.formats = append(p.formats, edtypes.CloneStack(stack))
}

func (p *domParser) walkChildren(n *html.Node, stack []Format) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.checkPosition(n, c)
		p.walk(c, stack)
	}
	p.checkPosition(n, nil)
}

func (p *domParser) walk(n *html.Node, stack []Format) {
	switch n.Type {
	case html.TextNode:
		base := len(p.text)
		runes := []rune(n.Data)
		p.resolve(n, func(offset int) int {
			offset = min(max(offset, 0), len(runes))
			return base + offset - strings.Count(string(runes[:offset]), string(ObjectReplacementCharacter))
		})
		for _, r := range runes {
			// символ объекта без элемента объекта не сохранился бы при сериализации
			if r == ObjectReplacementCharacter {
				continue
			}
			p.push(r, stack)
		}
	case html.ElementNode:
		if n.Data == "br" {
			p.push('\n', stack)
			p.resolveSubtree(n, len(p.text))
			return
		}

		ft := p.reg.ByTag(n.Data)
		f := Format{Type: ft.Name, Attributes: toAttributes(n.Attr)}
		if ft.Object {
			f.Object = true
			p.push(ObjectReplacementCharacter, append(edtypes.CloneStack(stack), f))
			p.resolveSubtree(n, len(p.text))
			return
		}

		inner := make([]Format, len(stack), len(stack)+1)
		copy(inner, stack)
		p.walkChildren(n, append(inner, f))
	case html.DocumentNode:
		p.walkChildren(n, stack)
	}
}

// checkPosition переводит позицию (parent, индекс child) в смещение. child == nil означает
// позицию после последнего дочернего узла.
func (p *domParser) checkPosition(parent, child *html.Node) {
	if p.sel == nil {
		return
	}
	index := 0
	for c := parent.FirstChild; c != child; c = c.NextSibling {
		index++
	}
	offset := len(p.text)
	p.resolve(parent, func(o int) int {
		if o == index {
			return offset
		}
		return -1
	})
}

func (p *domParser) resolve(n *html.Node, toOffset func(int) int) {
	if p.sel == nil {
		return
	}
	if pos := p.sel.Start; p.start == nil && pos != nil && pos.Node == n {
		if o := toOffset(pos.Offset); o >= 0 {
			p.start = Offset(o)
		}
	}
	if pos := p.sel.End; p.end == nil && pos != nil && pos.Node == n {
		if o := toOffset(pos.Offset); o >= 0 {
			p.end = Offset(o)
		}
	}
}

func (p *domParser) resolveSubtree(n *html.Node, offset int) {
	if p.sel == nil {
		return
	}
	p.resolve(n, func(int) int { return offset })
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.resolveSubtree(c, offset)
	}
}

func toAttributes(attrs []html.Attribute) Attributes {
	if len(attrs) == 0 {
		return nil
	}
	res := make(Attributes, 0, len(attrs))
	for _, a := range attrs {
		res = append(res, edtypes.Attribute{Key: a.Key, Val: a.Val})
	}
	return res
}
