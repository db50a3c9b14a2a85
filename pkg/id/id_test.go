package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// not parallel: the monotonic source only orders ids within one millisecond
// when nothing else draws from it in between
func TestAtIsSortableAndRecoverable(t *testing.T) {
	t0 := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	a := At(t0)
	b := At(t0)
	c := At(t0.Add(time.Second))

	assert.Len(t, a, 26)
	assert.Less(t, a, b)
	assert.Less(t, b, c)

	got, err := Time(c)
	require.NoError(t, err)
	assert.True(t, got.Equal(t0.Add(time.Second)))
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Valid(New()))
	assert.False(t, Valid("not-a-run-id"))

	_, err := Time("")
	assert.Error(t, err)
}
