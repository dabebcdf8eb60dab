// Пакет stack_error накапливает цепочку мест, через которые прошла ошибка, и контекст для логирования.
package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
)

type TrackerError struct {
	Context  map[string]any
	ErrStack []string
	cause    error
}

// TrackErrorStack оборачивает ошибку или дописывает место вызова в уже обернутую.
func TrackErrorStack(err error) *TrackerError {
	var te *TrackerError
	if !errors.As(err, &te) {
		te = &TrackerError{
			Context: make(map[string]any),
			cause:   err,
		}
	}
	te.ErrStack = append(te.ErrStack, callerFrame(2))
	return te
}

// AddContext не перезаписывает уже добавленный ключ.
func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

// WithDocument добавляет в контекст идентификатор документа.
func (te *TrackerError) WithDocument(id uuid.UUID) *TrackerError {
	return te.AddContext("document_id", id.String())
}

// GetError пишет в лог ошибку с накопленным стеком, контекстом и параметрами запроса.
// c может быть nil для фоновых задач.
func GetError(c echo.Context, err error) {
	var attrs []any

	var te *TrackerError
	if errors.As(err, &te) {
		attrs = te.attrs()
	} else {
		attrs = []any{slog.String("raw_error", err.Error())}
	}

	if c != nil {
		attrs = append(attrs,
			slog.String("method", c.Request().Method),
			slog.String("url", c.Request().URL.String()))
		if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
	}

	slog.Error("stack error", attrs...)
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

func (te *TrackerError) attrs() []any {
	keys := make([]string, 0, len(te.Context))
	for k := range te.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make([]any, 0, len(keys)+2)
	res = append(res, slog.String("err", te.Error()))
	for _, k := range keys {
		res = append(res, slog.Any(k, te.Context[k]))
	}
	res = append(res, slog.Any("stack", te.ErrStack))
	return res
}

func callerFrame(skip int) string {
	_, path, no, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	_, file := filepath.Split(path)
	return fmt.Sprintf("%s:%d", file, no)
}
