package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMalformedRangeErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("sheet %q: %w", "Sheet1", NewMalformedRangeError("A1:", "missing end cell"))

	assert.ErrorIs(t, err, ErrMalformedRange)
	assert.True(t, IsParseError(err))

	var rangeErr *MalformedRangeError
	assert.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, "A1:", rangeErr.Ref)
	assert.Contains(t, err.Error(), "missing end cell")
}

func TestLoadErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("fetch: %w", NewLoadError(NetworkFailure, "http://example.com/a.xlsx", cause))

	assert.True(t, errors.Is(err, ErrLoadFailed))
	assert.True(t, errors.Is(err, cause))

	kind, ok := LoadErrorKindOf(err)
	assert.True(t, ok)
	assert.Equal(t, NetworkFailure, kind)

	_, ok = LoadErrorKindOf(errors.New("plain"))
	assert.False(t, ok)
}
