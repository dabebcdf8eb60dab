package editor

import (
	"errors"
	"fmt"
)

var (
	ErrFormatsLength   = errors.New("formats length does not match text length")
	ErrSelectionRange  = errors.New("selection offset out of range")
	ErrObjectPlacement = errors.New("object format on a non object character")
	ErrMissingObject   = errors.New("object character without object format")
	ErrEmptyFormatType = errors.New("format without type")
	ErrDuplicateFormat = errors.New("duplicate format type in stack")
)

// ValidationError указывает на позицию, в которой нарушена корректность значения.
type ValidationError struct {
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("index %d: %s", e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate проверяет значение и возвращает все найденные нарушения, объединенные errors.Join.
func Validate(v Value) error {
	var errs []error
	n := v.Len()

	if len(v.Formats) != n {
		errs = append(errs, &ValidationError{Index: -1, Err: ErrFormatsLength})
	}
	if v.Start != nil && (*v.Start < 0 || *v.Start > n) {
		errs = append(errs, &ValidationError{Index: *v.Start, Err: ErrSelectionRange})
	}
	if v.End != nil && (*v.End < 0 || *v.End > n) {
		errs = append(errs, &ValidationError{Index: *v.End, Err: ErrSelectionRange})
	}

	i := 0
	for _, r := range v.Text {
		stack := v.FormatsAt(i)
		seen := make(map[string]struct{}, len(stack))
		hasObject := false
		for _, f := range stack {
			if f.Type == "" {
				errs = append(errs, &ValidationError{Index: i, Err: ErrEmptyFormatType})
				continue
			}
			if _, ok := seen[f.Type]; ok {
				errs = append(errs, &ValidationError{Index: i, Err: ErrDuplicateFormat})
			}
			seen[f.Type] = struct{}{}

			if f.Object {
				hasObject = true
				if r != ObjectReplacementCharacter {
					errs = append(errs, &ValidationError{Index: i, Err: ErrObjectPlacement})
				}
			}
		}
		// без формата объекта символ не попадает в дерево
		if r == ObjectReplacementCharacter && !hasObject {
			errs = append(errs, &ValidationError{Index: i, Err: ErrMissingObject})
		}
		i++
	}

	return errors.Join(errs...)
}
