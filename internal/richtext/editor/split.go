package editor

import (
	"strings"
	"unicode/utf8"
)

// Split делит строку по каждому вхождению разделителя. Пустые сегменты сохраняются,
// чтобы индексы строк оставались стабильными.
func Split(text, delimiter string) []string {
	if delimiter == "" {
		return []string{text}
	}
	return strings.Split(text, delimiter)
}

// SplitValue делит значение вместе со стеками форматов. Начало и конец выделения
// получает только тот кусок, в который попадает смещение; смещение сразу после куска
// (перед разделителем) принадлежит этому куску.
func SplitValue(v Value, delimiter string) []Value {
	pieces := Split(v.Text, delimiter)
	res := make([]Value, len(pieces))
	delimiterLen := utf8.RuneCountInString(delimiter)

	pieceStart := 0
	for i, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		pieceEnd := pieceStart + pieceLen

		value := Value{
			Text:    piece,
			Formats: sliceFormats(v.Formats, pieceStart, pieceEnd),
		}
		if v.Start != nil && *v.Start >= pieceStart && *v.Start <= pieceEnd {
			value.Start = Offset(*v.Start - pieceStart)
		}
		if v.End != nil && *v.End >= pieceStart && *v.End <= pieceEnd {
			value.End = Offset(*v.End - pieceStart)
		}
		res[i] = value

		pieceStart = pieceEnd + delimiterLen
	}

	return res
}
