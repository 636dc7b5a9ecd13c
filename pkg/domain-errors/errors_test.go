package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		err := New(CodeConflict, "name taken")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("wrapped by fmt", func(t *testing.T) {
		err := fmt.Errorf("create: %w", New(CodeValidation, "bad"))
		assert.True(t, HasCode(err, CodeValidation))
	})

	t.Run("nested domain errors", func(t *testing.T) {
		inner := New(CodeConflict, "duplicate")
		outer := Wrap(inner, CodeInternal, "persist failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeConflict))
		assert.True(t, Is(outer, CodeInternal))
		assert.False(t, Is(outer, CodeConflict))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWithFieldCopies(t *testing.T) {
	base := New(CodeValidation, "invalid")
	a := base.WithField("name", "required")
	b := a.WithField("code", "too long")

	assert.Empty(t, base.Fields)
	assert.Len(t, a.Fields, 1)
	require.Len(t, b.Fields, 2)
	assert.Equal(t, "required", FieldsOf(b)["name"])
}

func TestUnwrap(t *testing.T) {
	root := errors.New("connection reset")
	err := Wrap(root, CodeInternal, "failed to persist")
	assert.ErrorIs(t, err, root)
	assert.Equal(t, "failed to persist: connection reset", err.Error())
}
