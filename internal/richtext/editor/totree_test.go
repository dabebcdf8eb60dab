package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	tag      string
	typ      string
	text     string
	isText   bool
	parent   *testNode
	children []*testNode
}

// String выводит дерево в компактном виде: tag(children), текст в кавычках.
func (n *testNode) String() string {
	if n.isText {
		return `"` + n.text + `"`
	}
	var sb strings.Builder
	name := n.typ
	if name == "" {
		name = n.tag
	}
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, c := range n.children {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(c.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

type testBuilder struct{}

func (testBuilder) CreateEmpty(tag string) *testNode { return &testNode{tag: tag} }
func (testBuilder) CreateText(text string) *testNode { return &testNode{text: text, isText: true} }
func (testBuilder) CreateElement(f Format) *testNode { return &testNode{typ: f.Type} }

func (testBuilder) Append(parent, child *testNode) *testNode {
	child.parent = parent
	parent.children = append(parent.children, child)
	return child
}

func (testBuilder) GetLastChild(n *testNode) (*testNode, bool) {
	if len(n.children) == 0 {
		return nil, false
	}
	return n.children[len(n.children)-1], true
}

func (testBuilder) GetParent(n *testNode) (*testNode, bool) { return n.parent, n.parent != nil }
func (testBuilder) GetType(n *testNode) string             { return n.typ }
func (testBuilder) IsText(n *testNode) bool                { return n.isText }
func (testBuilder) GetText(n *testNode) string             { return n.text }
func (testBuilder) AppendText(n *testNode, text string)    { n.text += text }

func (testBuilder) Remove(n *testNode) {
	p := n.parent
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

func bold() Format { return Format{Type: "bold"} }

func link(href string) Format {
	return Format{Type: "link", Attributes: Attributes{{Key: "href", Val: href}}}
}

func TestToTree(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{
			name:  "plain text",
			value: Value{Text: "ab", Formats: [][]Format{nil, nil}},
			want:  `("ab")`,
		},
		{
			name:  "run merging",
			value: Value{Text: "ab", Formats: [][]Format{{bold()}, {bold()}}},
			want:  `(bold("ab"))`,
		},
		{
			name:  "format in the middle",
			value: Value{Text: "abc", Formats: [][]Format{nil, {bold()}, nil}},
			want:  `("a",bold("b"),"c")`,
		},
		{
			name: "nested formats",
			value: Value{Text: "abc", Formats: [][]Format{
				{bold()},
				{bold(), {Type: "italic"}},
				{bold()},
			}},
			want: `(bold("a",italic("b"),"c"))`,
		},
		{
			name: "different attributes are not merged",
			value: Value{Text: "ab", Formats: [][]Format{
				{link("https://a")},
				{link("https://b")},
			}},
			want: `(link("a"),link("b"))`,
		},
		{
			name: "object",
			value: Value{
				Text:    string(ObjectReplacementCharacter),
				Formats: [][]Format{{{Type: "image", Object: true}}},
			},
			want: `(image(""))`,
		},
		{
			name: "adjacent objects",
			value: Value{
				Text: strings.Repeat(string(ObjectReplacementCharacter), 2),
				Formats: [][]Format{
					{{Type: "image", Object: true}},
					{{Type: "image", Object: true}},
				},
			},
			want: `(image(""),image(""))`,
		},
		{
			name:  "line break",
			value: Value{Text: "a\nb", Formats: [][]Format{nil, nil, nil}},
			want:  `("a",br,"b")`,
		},
		{
			name:  "line break inside format",
			value: Value{Text: "a\nb", Formats: [][]Format{{bold()}, {bold()}, {bold()}}},
			want:  `(bold("a",br,"b"))`,
		},
		{
			name:  "empty value",
			value: Value{},
			want:  `("")`,
		},
		{
			name:  "missing formats",
			value: Value{Text: "abc", Formats: [][]Format{{bold()}}},
			want:  `(bold("a"),"bc")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := ToTree(tt.value, "", Settings[*testNode]{Builder: testBuilder{}})
			got := strings.ReplaceAll(tree.String(), "br()", "br")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToTreeObjectCharacterNeverText(t *testing.T) {
	v := Value{
		Text: "a" + string(ObjectReplacementCharacter) + "b",
		Formats: [][]Format{
			{bold()},
			{bold(), {Type: "image", Object: true}},
			nil,
		},
	}
	tree := ToTree(v, "", Settings[*testNode]{Builder: testBuilder{}})

	var walk func(n *testNode)
	walk = func(n *testNode) {
		if n.isText {
			assert.NotContains(t, n.text, string(ObjectReplacementCharacter))
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(tree)
	assert.Equal(t, `(bold("a",image("")),"b")`, tree.String())
}

func TestToTreeMultiline(t *testing.T) {
	v := Create("one" + string(LineSeparator) + "two" + string(LineSeparator) + "three")
	v = ApplyFormat(v, bold(), 4, 7)

	tree := ToTree(v, "p", Settings[*testNode]{Builder: testBuilder{}})
	assert.Equal(t, `(p("one"),p(bold("two")),p("three"))`, tree.String())
}

func TestToTreeSelection(t *testing.T) {
	type call struct {
		pointer string
		index   int
	}

	run := func(v Value, multilineTag string) (starts, ends []call) {
		ToTree(v, multilineTag, Settings[*testNode]{
			Builder: testBuilder{},
			OnStartIndex: func(_, pointer *testNode, i int) {
				starts = append(starts, call{pointer.String(), i})
			},
			OnEndIndex: func(_, pointer *testNode, i int) {
				ends = append(ends, call{pointer.String(), i})
			},
		})
		return
	}

	t.Run("undefined selection", func(t *testing.T) {
		starts, ends := run(Create("abc"), "")
		assert.Empty(t, starts)
		assert.Empty(t, ends)
	})

	t.Run("collapsed at start", func(t *testing.T) {
		v := Create("abc")
		v.Start, v.End = Offset(0), Offset(0)
		starts, ends := run(v, "")
		require.Len(t, starts, 1)
		require.Len(t, ends, 1)
		assert.Equal(t, NoMultilineIndex, starts[0].index)
	})

	t.Run("range", func(t *testing.T) {
		v := ApplyFormat(Create("abc"), bold(), 1, 3)
		v.Start, v.End = Offset(1), Offset(3)
		starts, ends := run(v, "")
		require.Len(t, starts, 1)
		require.Len(t, ends, 1)
		assert.Equal(t, `"a"`, starts[0].pointer)
		assert.Equal(t, `"bc"`, ends[0].pointer)
	})

	t.Run("multiline index", func(t *testing.T) {
		v := Create("ab" + string(LineSeparator) + "cd")
		v.Start, v.End = Offset(4), Offset(5)
		starts, ends := run(v, "p")
		require.Len(t, starts, 1)
		require.Len(t, ends, 1)
		assert.Equal(t, 1, starts[0].index)
		assert.Equal(t, 1, ends[0].index)
	})

	t.Run("caret at the line end", func(t *testing.T) {
		v := Create("ab" + string(LineSeparator) + "cd")
		v.Start, v.End = Offset(2), Offset(2)
		starts, _ := run(v, "p")
		require.Len(t, starts, 1)
		assert.Equal(t, 0, starts[0].index)
	})
}
