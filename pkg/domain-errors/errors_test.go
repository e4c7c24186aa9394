package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesInnerCode(t *testing.T) {
	inner := New(CodeNotFound, "token not found")
	outer := Wrap(inner, CodeInternal, "mint failed")

	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeInternal))
}

func TestWrap_NilIsNil(t *testing.T) {
	require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestCodeOf_UncodedFallsBackToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(fmt.Errorf("submit tx: %w", cause), CodeExternal, "ledger unreachable")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, HasCode(err, CodeExternal))
}

func TestMessageOf(t *testing.T) {
	err := New(CodeValidation, "missing field certification_name")
	assert.Equal(t, "missing field certification_name", MessageOf(err))
	assert.Equal(t, "", MessageOf(errors.New("plain")))
}
