// Пакет содержит определения ошибок API сервиса форматированного текста. Каждая ошибка имеет код,
// статус HTTP и описание на двух языках.
//
// Основные возможности:
//   - Ошибки проверки значений (некорректные стеки форматов, выделение, размер).
//   - Ошибки преобразования (HTML, TipTap, экспорт).
//   - Ошибки работы с документами и ревизиями.
//   - Функция для форматирования сообщений об ошибках с использованием аргументов.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 1*** - value errors
	ErrInvalidValue       = DefinedError{Code: 1001, StatusCode: http.StatusBadRequest, Err: "invalid rich-text value: %s", RuErr: "Некорректное значение текста: %s"}
	ErrValueTooLarge      = DefinedError{Code: 1002, StatusCode: http.StatusRequestEntityTooLarge, Err: "text length exceeds the allowed limit%s", RuErr: "Длина текста превышает допустимую%s"}
	ErrUnknownTarget      = DefinedError{Code: 1003, StatusCode: http.StatusBadRequest, Err: "unknown conversion target %s", RuErr: "Неизвестный формат преобразования %s"}
	ErrFormatTypeRequired = DefinedError{Code: 1004, StatusCode: http.StatusBadRequest, Err: "format type is required", RuErr: "Не указан тип формата"}
	ErrInvalidRange       = DefinedError{Code: 1005, StatusCode: http.StatusBadRequest, Err: "invalid range", RuErr: "Некорректный диапазон"}
	ErrRequestValidate    = DefinedError{Code: 1006, StatusCode: http.StatusBadRequest, Err: "validation error", RuErr: "Введены некорректные данные"}

	// 2*** - conversion errors
	ErrHTMLParse      = DefinedError{Code: 2001, StatusCode: http.StatusBadRequest, Err: "failed to parse html", RuErr: "Не удалось разобрать HTML"}
	ErrTipTapParse    = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "failed to parse tiptap document", RuErr: "Не удалось разобрать документ TipTap"}
	ErrExportFailed   = DefinedError{Code: 2003, StatusCode: http.StatusInternalServerError, Err: "export failed", RuErr: "Ошибка экспорта"}
	ErrBatchTooLarge  = DefinedError{Code: 2004, StatusCode: http.StatusBadRequest, Err: "too many values in batch", RuErr: "Слишком много значений в пакете"}
	ErrRuleRejected   = DefinedError{Code: 2005, StatusCode: http.StatusUnprocessableEntity, Err: "value rejected by rule: %s", RuErr: "Значение отклонено правилом: %s"}
	ErrRuleScriptFail = DefinedError{Code: 2006, StatusCode: http.StatusBadRequest, Err: "rule script failed", RuErr: "Ошибка выполнения скрипта правила"}
	ErrHTMLSelector   = DefinedError{Code: 2007, StatusCode: http.StatusBadRequest, Err: "selector matched no elements", RuErr: "Селектор не нашел ни одного элемента"}

	// 3*** - document errors
	ErrDocumentNotFound        = DefinedError{Code: 3001, StatusCode: http.StatusNotFound, Err: "document not found", RuErr: "Документ не найден"}
	ErrRevisionNotFound        = DefinedError{Code: 3002, StatusCode: http.StatusNotFound, Err: "revision not found", RuErr: "Ревизия не найдена"}
	ErrDocumentTitleRequired   = DefinedError{Code: 3003, StatusCode: http.StatusBadRequest, Err: "document title is required", RuErr: "Не указано название документа"}
	ErrDocumentIdInvalid       = DefinedError{Code: 3004, StatusCode: http.StatusBadRequest, Err: "invalid document id", RuErr: "Некорректный идентификатор документа"}
	ErrDocumentRequestValidate = DefinedError{Code: 3005, StatusCode: http.StatusBadRequest, Err: "validation error", RuErr: "Введены некорректные данные"}
	ErrDocumentVersionConflict = DefinedError{Code: 3006, StatusCode: http.StatusConflict, Err: "document was changed by another request", RuErr: "Документ изменен другим запросом, обновите страницу"}

	// 5*** - generic errors
	ErrGeneric            = DefinedError{Code: 5000, StatusCode: http.StatusBadRequest, Err: "Something went wrong. Please try again later or contact the support team.", RuErr: "Что-то пошло не так. Повторите попытку позже или обратитесь в службу поддержки"}
	ErrEntityToLarge      = DefinedError{Code: 5010, StatusCode: http.StatusRequestEntityTooLarge, Err: "size exceeds the allowed limit", RuErr: "Размер запроса превышает допустимый."}
	ErrLimiterUnavailable = DefinedError{Code: 5020, StatusCode: http.StatusServiceUnavailable, Err: "limits service unavailable", RuErr: "Сервис лимитов недоступен"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
