package apierrors

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithFormattedMessage(t *testing.T) {
	err := ErrUnknownTarget.WithFormattedMessage("docx")
	assert.Equal(t, "unknown conversion target docx", err.Error())
	assert.Equal(t, "Неизвестный формат преобразования docx", err.RuErr)
	assert.Equal(t, "unknown conversion target %s", ErrUnknownTarget.Err)

	err = ErrInvalidValue.WithFormattedMessage()
	assert.Equal(t, "invalid rich-text value: ", err.Err)
}

func TestDefinedErrorJSON(t *testing.T) {
	data, err := json.Marshal(ErrDocumentNotFound)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"code":3001,"error":"document not found","ru_error":"Документ не найден"}`, string(data))
}
