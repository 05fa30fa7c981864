package queue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	q := New(5)

	require.NoError(t, q.Push(Utterance{Text: "first", IsFinal: true}))
	require.NoError(t, q.Push(Utterance{Text: "second", IsFinal: true}))

	u, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "first", u.Text)

	u, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "second", u.Text)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPushRejectsWhenFull(t *testing.T) {
	q := New(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(Utterance{Text: fmt.Sprintf("u%d", i), IsFinal: true}))
	}

	// The 6th push is rejected, never blocked
	err := q.Push(Utterance{Text: "u5", IsFinal: true})
	assert.ErrorIs(t, err, ErrFull)

	// The first 5 drain in arrival order
	for i := 0; i < 5; i++ {
		u, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("u%d", i), u.Text)
	}
}

func TestPushAfterPopSucceeds(t *testing.T) {
	q := New(2)
	require.NoError(t, q.Push(Utterance{Text: "a"}))
	require.NoError(t, q.Push(Utterance{Text: "b"}))
	assert.ErrorIs(t, q.Push(Utterance{Text: "c"}), ErrFull)

	_, ok := q.Pop()
	require.True(t, ok)
	assert.NoError(t, q.Push(Utterance{Text: "c"}))
}

func TestNearCapacity(t *testing.T) {
	q := New(5)
	assert.False(t, q.NearCapacity())

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(Utterance{Text: "x"}))
	}
	assert.False(t, q.NearCapacity())

	require.NoError(t, q.Push(Utterance{Text: "x"}))
	assert.True(t, q.NearCapacity()) // 4 of 5 is past the 80% threshold
}

func TestZeroCapacityFallsBackToDefault(t *testing.T) {
	q := New(0)
	for i := 0; i < DefaultCapacity; i++ {
		require.NoError(t, q.Push(Utterance{Text: "x"}))
	}
	assert.ErrorIs(t, q.Push(Utterance{Text: "x"}), ErrFull)
}
