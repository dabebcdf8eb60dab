package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	v := Create("привет")
	assert.Equal(t, "привет", v.Text)
	assert.Len(t, v.Formats, 6)
	assert.NoError(t, Validate(v))
}

func TestApplyFormat(t *testing.T) {
	v := Create("abcd")
	res := ApplyFormat(v, bold(), 1, 3)

	assert.Equal(t, [][]Format{nil, {bold()}, {bold()}, nil}, res.Formats)
	// исходное значение не меняется
	assert.Equal(t, [][]Format{nil, nil, nil, nil}, v.Formats)

	t.Run("replace same type", func(t *testing.T) {
		v := ApplyFormat(Create("ab"), link("https://a"), 0, 2)
		v = ApplyFormat(v, bold(), 0, 2)
		v = ApplyFormat(v, link("https://b"), 0, 1)

		assert.Equal(t, []Format{link("https://b"), bold()}, v.Formats[0])
		assert.Equal(t, []Format{link("https://a"), bold()}, v.Formats[1])
	})

	t.Run("range is clamped", func(t *testing.T) {
		v := ApplyFormat(Create("ab"), bold(), 3, -1)
		assert.Equal(t, [][]Format{{bold()}, {bold()}}, v.Formats)
	})
}

func TestRemoveFormat(t *testing.T) {
	v := ApplyFormat(Create("abc"), bold(), 0, 3)
	v = ApplyFormat(v, Format{Type: "italic"}, 0, 3)

	res := RemoveFormat(v, "bold", 1, 3)
	assert.Equal(t, []Format{bold(), {Type: "italic"}}, res.Formats[0])
	assert.Equal(t, []Format{{Type: "italic"}}, res.Formats[1])
	assert.Len(t, v.Formats[1], 2)

	res = RemoveFormat(res, "italic", 0, 3)
	assert.Nil(t, res.Formats[2])
}

func TestToggleFormat(t *testing.T) {
	v := ApplyFormat(Create("abc"), bold(), 0, 1)

	on := ToggleFormat(v, bold(), 0, 3)
	assert.Equal(t, [][]Format{{bold()}, {bold()}, {bold()}}, on.Formats)

	off := ToggleFormat(on, bold(), 0, 3)
	assert.Equal(t, [][]Format{nil, nil, nil}, off.Formats)

	same := ToggleFormat(v, bold(), 2, 2)
	assert.True(t, same.Equal(v))
}

func TestGetActiveFormat(t *testing.T) {
	v := ApplyFormat(Create("abc"), link("https://a"), 0, 2)

	_, ok := GetActiveFormat(v, "link")
	assert.False(t, ok, "no selection")

	v.Start, v.End = Offset(0), Offset(2)
	f, ok := GetActiveFormat(v, "link")
	assert.True(t, ok)
	assert.Equal(t, link("https://a"), f)

	v.Start, v.End = Offset(1), Offset(3)
	_, ok = GetActiveFormat(v, "link")
	assert.False(t, ok)

	v.Start, v.End = Offset(2), Offset(2)
	_, ok = GetActiveFormat(v, "link")
	assert.True(t, ok, "caret right after the link")

	v.Start, v.End = Offset(0), Offset(0)
	_, ok = GetActiveFormat(v, "link")
	assert.False(t, ok)
}

func TestInsert(t *testing.T) {
	v := ApplyFormat(Create("abcd"), bold(), 0, 4)
	ins := ApplyFormat(Create("XY"), Format{Type: "italic"}, 0, 2)

	res := Insert(v, ins, 1, 3)
	assert.Equal(t, "aXYd", res.Text)
	assert.Equal(t, [][]Format{{bold()}, {{Type: "italic"}}, {{Type: "italic"}}, {bold()}}, res.Formats)
	require.True(t, IsCollapsed(res))
	assert.Equal(t, 3, *res.Start)
	assert.NoError(t, Validate(res))
}

func TestInsertObject(t *testing.T) {
	img := Format{Type: "image", Attributes: Attributes{{Key: "src", Val: "a.png"}}}
	res := InsertObject(Create("ab"), img, 1, 1)

	assert.Equal(t, "a"+string(ObjectReplacementCharacter)+"b", res.Text)
	require.Len(t, res.Formats[1], 1)
	assert.True(t, res.Formats[1][0].Object)
	assert.NoError(t, Validate(res))
}

func TestRemoveAndSlice(t *testing.T) {
	v := ApplyFormat(Create("abcdef"), bold(), 2, 4)

	res := Remove(v, 1, 3)
	assert.Equal(t, "adef", res.Text)
	assert.Equal(t, [][]Format{nil, {bold()}, nil, nil}, res.Formats)

	s := Slice(v, 2, 5)
	assert.Equal(t, "cde", s.Text)
	assert.Equal(t, [][]Format{{bold()}, {bold()}, nil}, s.Formats)
	assert.Nil(t, s.Start)
}

func TestConcatJoin(t *testing.T) {
	a := ApplyFormat(Create("ab"), bold(), 0, 2)
	b := Create("cd")

	c := Concat(a, b)
	assert.Equal(t, "abcd", c.Text)
	assert.Len(t, c.Formats, 4)

	j := Join([]Value{a, b, b}, string(LineSeparator))
	assert.Equal(t, "ab"+string(LineSeparator)+"cd"+string(LineSeparator)+"cd", j.Text)
	assert.Len(t, j.Formats, 8)
	assert.Equal(t, 3, len(SplitValue(j, string(LineSeparator))))
	assert.NoError(t, Validate(j))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsEmpty(Create("")))
	assert.False(t, IsEmpty(Create("a")))
	assert.Equal(t, "abc", GetTextContent(Create("abc")))

	v := Create("a" + string(LineSeparator) + string(LineSeparator) + "b")
	assert.False(t, IsCollapsed(v))

	v.Start, v.End = Offset(2), Offset(2)
	assert.True(t, IsCollapsed(v))
	assert.True(t, IsEmptyLine(v))

	v.Start, v.End = Offset(1), Offset(1)
	assert.False(t, IsEmptyLine(v))

	assert.True(t, IsEmptyLine(Create("")))
}
