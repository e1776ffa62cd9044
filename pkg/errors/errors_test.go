package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder(t *testing.T) {
	err := NewError().
		WithCode(CodeInvalidData).
		WithMessagef("bad row %d", 7).
		WithError(io.ErrUnexpectedEOF)

	assert.Equal(t, CodeInvalidData, err.Code)
	assert.Equal(t, "bad row 7", err.Message)
	assert.Contains(t, err.Error(), "bad row 7")
	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF), "inner error unwraps")
}

func TestWrapError(t *testing.T) {
	inner := stderrors.New("boom")
	err := WrapError(inner, "stage failed", CodeInternalError)
	assert.Equal(t, CodeInternalError, err.Code)
	assert.Equal(t, inner, err.Unwrap())
}

func TestWrapMessage(t *testing.T) {
	err := WrapMessage("missing config", CodeLackOfConfig)
	assert.Equal(t, CodeLackOfConfig, err.Code)
	assert.Nil(t, err.Unwrap())
	assert.NotEmpty(t, err.GetStackString())
}
