// Пакет edtypes содержит базовые типы модели форматированного текста: плоский буфер символов,
// параллельный массив стеков форматов и смещения выделения.
//
// Основные возможности:
//   - Описание формата (тип, упорядоченные атрибуты, признак встроенного объекта).
//   - Описание значения Value и его инвариантов.
//   - JSON-сериализация с сохранением порядка атрибутов.
//   - Хранение Value в колонках БД (driver.Valuer / sql.Scanner).
package edtypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"
)

const (
	// ObjectReplacementCharacter занимает в тексте место встроенного объекта (изображения и т.п.).
	ObjectReplacementCharacter = '\ufffc'
	// LineSeparator разделяет строки multiline-значения.
	LineSeparator = '\u2028'
)

type Attribute struct {
	Key string
	Val string
}

// Attributes - упорядоченный набор атрибутов формата.
type Attributes []Attribute

func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// Set возвращает копию набора с установленным значением, исходный набор не меняется.
func (a Attributes) Set(key, val string) Attributes {
	res := slices.Clone(a)
	for i := range res {
		if res[i].Key == key {
			res[i].Val = val
			return res
		}
	}
	return append(res, Attribute{Key: key, Val: val})
}

func (a Attributes) Equal(b Attributes) bool {
	return slices.Equal(a, b)
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(attr.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(attr.Val)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON читает объект токенами, чтобы сохранить порядок ключей.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return errors.New("attributes must be a JSON object")
	}

	res := Attributes{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("unexpected attribute key %v", kt)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var val string
		if err := json.Unmarshal(raw, &val); err != nil {
			// Числа и булевы значения храним в текстовом виде
			val = string(raw)
		}
		res = append(res, Attribute{Key: key, Val: val})
	}
	*a = res
	return nil
}

// Format - именованная аннотация над непрерывным диапазоном символов.
type Format struct {
	Type       string     `json:"type"`
	Attributes Attributes `json:"attributes,omitempty"`
	Object     bool       `json:"object,omitempty"`
}

func (f Format) Equal(o Format) bool {
	return f.Type == o.Type && f.Object == o.Object && f.Attributes.Equal(o.Attributes)
}

func (f Format) Clone() Format {
	f.Attributes = slices.Clone(f.Attributes)
	return f
}

// Value - плоский текст, выровненный с ним массив стеков форматов (от внешнего к внутреннему)
// и границы выделения. Смещения и индексы Formats считаются в рунах.
type Value struct {
	Text    string     `json:"text"`
	Formats [][]Format `json:"formats"`
	Start   *int       `json:"start,omitempty"`
	End     *int       `json:"end,omitempty"`
}

// Offset возвращает указатель на смещение, удобно для литералов Value.
func Offset(i int) *int {
	return &i
}

func (v Value) Len() int {
	return utf8.RuneCountInString(v.Text)
}

// FormatsAt возвращает стек форматов символа i или nil, если его нет.
func (v Value) FormatsAt(i int) []Format {
	if i < 0 || i >= len(v.Formats) {
		return nil
	}
	return v.Formats[i]
}

func (v Value) HasSelection() bool {
	return v.Start != nil && v.End != nil
}

// Clone делает глубокую копию: стеки и атрибуты не разделяются с исходным значением.
func (v Value) Clone() Value {
	res := Value{Text: v.Text}
	if v.Formats != nil {
		res.Formats = make([][]Format, len(v.Formats))
		for i, stack := range v.Formats {
			res.Formats[i] = CloneStack(stack)
		}
	}
	if v.Start != nil {
		res.Start = Offset(*v.Start)
	}
	if v.End != nil {
		res.End = Offset(*v.End)
	}
	return res
}

func CloneStack(stack []Format) []Format {
	if len(stack) == 0 {
		return nil
	}
	res := make([]Format, len(stack))
	for i, f := range stack {
		res[i] = f.Clone()
	}
	return res
}

func StacksEqual(a, b []Format) bool {
	return slices.EqualFunc(a, b, Format.Equal)
}

// Equal сравнивает текст, стеки форматов и выделение.
func (v Value) Equal(o Value) bool {
	if v.Text != o.Text || !intPtrEqual(v.Start, o.Start) || !intPtrEqual(v.End, o.End) {
		return false
	}
	n := max(len(v.Formats), len(o.Formats))
	for i := 0; i < n; i++ {
		if !StacksEqual(v.FormatsAt(i), o.FormatsAt(i)) {
			return false
		}
	}
	return true
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Value реализует интерфейс driver.Valuer для хранения Value в JSON-колонке.
func (v Value) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan реализует интерфейс sql.Scanner для чтения Value из JSON-колонки.
func (v *Value) Scan(value interface{}) error {
	if value == nil {
		*v = Value{}
		return nil
	}

	var data []byte
	switch val := value.(type) {
	case []byte:
		data = val
	case string:
		data = []byte(val)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}

	return json.Unmarshal(data, v)
}

// GormDataType указывает GORM тип колонки.
func (Value) GormDataType() string {
	return "json"
}
