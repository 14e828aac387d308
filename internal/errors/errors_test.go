package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := RangeError("p-value %g outside [0, 1]", 1.5)
	wrapped := Wrap(base, "compute failed")

	assert.True(t, IsRangeError(wrapped))
	assert.False(t, IsEstimationError(wrapped))
	assert.Equal(t, "compute failed: p-value 1.5 outside [0, 1]", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapThroughFmt(t *testing.T) {
	base := EstimationError("pi0 estimate <= 0", nil)
	wrapped := fmt.Errorf("estimating: %w", base)

	assert.True(t, IsEstimationError(wrapped))
	assert.Equal(t, CodeEstimationError, GetCode(Wrap(wrapped, "outer")))
}

func TestWrapPlainError(t *testing.T) {
	err := Wrap(stderrors.New("boom"), "context")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
}

func TestGetCodeUnknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.False(t, IsAppError(stderrors.New("plain")))
	assert.False(t, HasCode(nil, CodeRangeError))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, stderrors.New("bad column"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Contains(t, err.Error(), "bad column")

	recoded := WithCode(CodeNotFound, err)
	assert.Equal(t, CodeNotFound, GetCode(recoded))
}
