// Валидация запросов сервиса форматированного текста с использованием go-playground/validator.
//
// Основные возможности:
//   - Проверка тега строк multiline-значений.
//   - Проверка названия документа.
//   - Проверка имени типа формата.
package richtext

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/utils"
	"github.com/go-playground/validator"
)

// MultilineTags теги, допустимые для multiline-значений. Пустая строка означает одну строку.
var MultilineTags = []string{"", "p", "li", "div"}

var formatTypeRegexp = regexp.MustCompile(`^[a-z][a-z0-9_\-/]*$`)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	err := v.RegisterValidation("multilineTag", multilineTagValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("documentTitle", documentTitleValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("formatType", formatTypeValidator)
	if err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func multilineTagValidator(fl validator.FieldLevel) bool {
	return utils.CheckInSlice(MultilineTags, fl.Field().String())
}

func documentTitleValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	lenStr := utf8.RuneCountInString(value)
	for _, r := range value {
		if unicode.IsControl(r) {
			return false
		}
	}
	return lenStr >= 1 && lenStr <= 255
}

func formatTypeValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(value) <= 64 && formatTypeRegexp.MatchString(value)
}
