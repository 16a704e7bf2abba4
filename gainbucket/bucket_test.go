package gainbucket_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/hyperpart/gainbucket"
	"github.com/katalvlaran/hyperpart/hypergraph"
)

// entry builds a bucket entry for a fresh single-implementation node.
func entry(t *testing.T, id, gain int, wv ...int) gainbucket.Entry {
	t.Helper()
	if len(wv) == 0 {
		wv = []int{1}
	}
	n := hypergraph.NewNode(id, "")
	require.NoError(t, n.AddWeightVector(wv))
	return gainbucket.NewEntry(gain, n)
}

// TestBucket_TopOrdering verifies descending-gain ordering with the
// latest insertion first inside one gain value.
func TestBucket_TopOrdering(t *testing.T) {
	b := gainbucket.NewBucket()
	b.Add(entry(t, 1, 5))
	b.Add(entry(t, 2, 9))
	b.Add(entry(t, 3, 5))
	require.Equal(t, 3, b.Len())

	top, err := b.Top()
	require.NoError(t, err)
	assert.Equal(t, 2, top.ID)

	popped, err := b.Pop()
	require.NoError(t, err)
	assert.Equal(t, 2, popped.ID)

	// Within gain 5 the most recently added entry comes first.
	popped, err = b.Pop()
	require.NoError(t, err)
	assert.Equal(t, 3, popped.ID)
	popped, err = b.Pop()
	require.NoError(t, err)
	assert.Equal(t, 1, popped.ID)

	assert.True(t, b.Empty())
	_, err = b.Top()
	assert.ErrorIs(t, err, gainbucket.ErrEmptyBucket)
}

// TestBucket_RemoveByID verifies removal from the middle of a chain and
// the side-index consistency around it.
func TestBucket_RemoveByID(t *testing.T) {
	b := gainbucket.NewBucket()
	for i, gain := range []int{4, 4, 4, 7} {
		b.Add(entry(t, i+1, gain))
	}

	removed, err := b.RemoveByID(2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed.ID)
	assert.Equal(t, 4, removed.Gain)
	assert.False(t, b.Has(2))
	assert.Equal(t, 3, b.Len())

	_, err = b.RemoveByID(2)
	assert.ErrorIs(t, err, gainbucket.ErrNodeNotInBucket)

	// Remaining entries still reachable through the side index.
	for _, id := range []int{1, 3, 4} {
		require.True(t, b.Has(id))
		e := b.EntryByID(id)
		require.NotNil(t, e)
		assert.Equal(t, id, e.ID)
	}
}

// TestBucket_Touch verifies that touching moves an entry to the front
// of its own gain chain without disturbing other chains.
func TestBucket_Touch(t *testing.T) {
	b := gainbucket.NewBucket()
	b.Add(entry(t, 1, 3))
	b.Add(entry(t, 2, 3))
	b.Add(entry(t, 3, 3))

	// Front is the latest addition; touching 1 brings it forward.
	b.Touch(1)
	popped, err := b.Pop()
	require.NoError(t, err)
	assert.Equal(t, 1, popped.ID)

	// Touching an absent node is a no-op.
	b.Touch(42)
	assert.Equal(t, 2, b.Len())
}

// TestBucket_Peek verifies offset access in descending gain order.
func TestBucket_Peek(t *testing.T) {
	b := gainbucket.NewBucket()
	b.Add(entry(t, 1, 1))
	b.Add(entry(t, 2, 8))
	b.Add(entry(t, 3, 5))

	assert.Equal(t, 2, b.Peek(0).ID)
	assert.Equal(t, 3, b.Peek(1).ID)
	assert.Equal(t, 1, b.Peek(2).ID)
	assert.Nil(t, b.Peek(3))
}

// TestBucket_UpdateGains verifies remove-rewrite-reinsert semantics,
// including duplicate IDs being applied once per occurrence.
func TestBucket_UpdateGains(t *testing.T) {
	b := gainbucket.NewBucket()
	b.Add(entry(t, 1, 0))
	b.Add(entry(t, 2, 10))

	b.UpdateGains(3, []int{1, 1})
	e := b.EntryByID(1)
	require.NotNil(t, e)
	assert.Equal(t, 6, e.Gain)

	b.UpdateGains(-20, []int{2})
	top, err := b.Top()
	require.NoError(t, err)
	assert.Equal(t, 1, top.ID)
	e = b.EntryByID(2)
	require.NotNil(t, e)
	assert.Equal(t, -10, e.Gain, "negative gains are valid keys")

	// Unknown IDs are skipped.
	b.UpdateGains(1, []int{99})
	assert.Equal(t, 2, b.Len())
}
