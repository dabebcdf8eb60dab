package editor

import (
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/edtypes"
)

// Реэкспорт типов из edtypes
type (
	Format     = edtypes.Format
	Attribute  = edtypes.Attribute
	Attributes = edtypes.Attributes
	Value      = edtypes.Value
)

const (
	ObjectReplacementCharacter = edtypes.ObjectReplacementCharacter
	LineSeparator              = edtypes.LineSeparator
)

var (
	Offset      = edtypes.Offset
	StacksEqual = edtypes.StacksEqual
)
