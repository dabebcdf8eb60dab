// Пакет для экспорта значений форматированного текста в Markdown и PDF.
//
// Основные возможности:
//   - Построение Markdown через TreeBuilder поверх ToTree.
//   - Поддержка multiline-значений (параграфы и маркированные списки).
//   - Генерация PDF из DOM-дерева значения со стилями шрифта и ссылками.
package export

import (
	"io"
	"strings"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
	md "github.com/nao1215/markdown"
)

type mdNode struct {
	typ      string
	text     string
	isText   bool
	attrs    editor.Attributes
	parent   *mdNode
	children []*mdNode
}

// mdBuilder строит промежуточное дерево, которое затем выводится в Markdown.
type mdBuilder struct{}

func (mdBuilder) CreateEmpty(tag string) *mdNode { return &mdNode{typ: tag} }
func (mdBuilder) CreateText(text string) *mdNode { return &mdNode{text: text, isText: true} }

func (mdBuilder) CreateElement(f editor.Format) *mdNode {
	return &mdNode{typ: f.Type, attrs: f.Attributes}
}

func (mdBuilder) Append(parent, child *mdNode) *mdNode {
	child.parent = parent
	parent.children = append(parent.children, child)
	return child
}

func (mdBuilder) GetLastChild(n *mdNode) (*mdNode, bool) {
	if len(n.children) == 0 {
		return nil, false
	}
	return n.children[len(n.children)-1], true
}

func (mdBuilder) GetParent(n *mdNode) (*mdNode, bool) { return n.parent, n.parent != nil }
func (mdBuilder) GetType(n *mdNode) string          { return n.typ }
func (mdBuilder) IsText(n *mdNode) bool             { return n.isText }
func (mdBuilder) GetText(n *mdNode) string          { return n.text }
func (mdBuilder) AppendText(n *mdNode, text string) { n.text += text }

func (mdBuilder) Remove(n *mdNode) {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"~", `\~`,
	"[", `\[`,
	"]", `\]`,
)

func (n *mdNode) render() string {
	if n.isText {
		return mdEscaper.Replace(n.text)
	}

	var sb strings.Builder
	for _, c := range n.children {
		sb.WriteString(c.render())
	}
	inner := sb.String()

	switch n.typ {
	case editor.LineBreakType:
		return "  \n"
	case "image":
		src, _ := n.attrs.Get("src")
		alt, _ := n.attrs.Get("alt")
		return md.Image(alt, src)
	}

	if inner == "" {
		return ""
	}

	switch n.typ {
	case "bold":
		return md.Bold(inner)
	case "italic":
		return md.Italic(inner)
	case "strikethrough":
		return md.Strikethrough(inner)
	case "code":
		return md.Code(inner)
	case "mark", "highlight":
		return md.Highlight(inner)
	case "link":
		href, _ := n.attrs.Get("href")
		return md.Link(inner, href)
	default:
		return inner
	}
}

// ToMarkdown пишет значение в Markdown. Для multilineTag "li" строки выводятся
// маркированным списком, иначе параграфами. Пустой title не выводится.
func ToMarkdown(w io.Writer, title string, v editor.Value, multilineTag string) error {
	tree := editor.ToTree(v, multilineTag, editor.Settings[*mdNode]{
		Builder: mdBuilder{},
	})

	lines := []string{tree.render()}
	if multilineTag != "" {
		lines = lines[:0]
		for _, line := range tree.children {
			lines = append(lines, line.render())
		}
	}

	m := md.NewMarkdown(w)
	if title != "" {
		m.H1(title)
	}

	if multilineTag == "li" {
		m.BulletList(lines...)
	} else {
		for i, line := range lines {
			if i > 0 {
				m.PlainText("")
			}
			m.PlainText(line)
		}
	}

	return m.Build()
}
