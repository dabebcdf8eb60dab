package stack_error

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackErrorStack(t *testing.T) {
	base := errors.New("db is down")

	te := TrackErrorStack(base).AddContext("document_id", "42")
	require.Len(t, te.ErrStack, 1)
	assert.True(t, strings.HasPrefix(te.ErrStack[0], "error_test.go:"), te.ErrStack[0])
	assert.ErrorIs(t, te, base)

	again := TrackErrorStack(te).AddContext("document_id", "other")
	assert.Same(t, te, again)
	assert.Len(t, again.ErrStack, 2)
	assert.Equal(t, "42", again.Context["document_id"])
	assert.Equal(t, "db is down", again.Error())

	assert.NotPanics(t, func() { GetError(nil, again) })
	assert.NotPanics(t, func() { GetError(nil, base) })
}

func TestWithDocument(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	te := TrackErrorStack(errors.New("fail")).WithDocument(id).AddContext("version", 3)

	assert.Equal(t, id.String(), te.Context["document_id"])

	attrs := te.attrs()
	require.Len(t, attrs, 4)
	assert.Equal(t, "err", attrs[0].(slog.Attr).Key)
	assert.Equal(t, "document_id", attrs[1].(slog.Attr).Key)
	assert.Equal(t, "version", attrs[2].(slog.Attr).Key)
	assert.Equal(t, "stack", attrs[3].(slog.Attr).Key)
}

func TestGetErrorWithRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/documents/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "req-1")

	assert.NotPanics(t, func() { GetError(c, TrackErrorStack(errors.New("fail"))) })
}
