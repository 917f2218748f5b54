package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("add participant: %w", Conflict("already a participant"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "already a participant", Message(err, "fallback"))
}

func TestIsComparesMessageWhenSet(t *testing.T) {
	err := NotFound("event not found")

	assert.True(t, errors.Is(err, NotFound("event not found")))
	assert.False(t, errors.Is(err, NotFound("user not found")))
}

func TestStorageHidesCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Storage("insert event", cause)

	assert.Equal(t, KindStorage, KindOf(err))
	assert.Equal(t, "internal server error", Message(err, ""))
	assert.ErrorIs(t, err, cause)
}

func TestUnclassified(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, "fallback", Message(err, "fallback"))
	assert.Equal(t, "unknown", KindOf(err).String())
}
