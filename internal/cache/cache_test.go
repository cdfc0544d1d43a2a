package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexhholmes/diskbtree/internal/base"
)

type node = base.Node[base.Int64, base.Int64]

var layout = base.Layout{T: 2, KeySize: 8, ValueSize: 8}

// recorder captures write-backs instead of touching a store
type recorder struct {
	writes []base.Address
	fail   error
}

func (r *recorder) write(n *node) error {
	if r.fail != nil {
		return r.fail
	}
	r.writes = append(r.writes, n.Addr)
	return nil
}

// Helper to create a test Node
func makeTestNode(addr base.Address) *node {
	return base.NewNode[base.Int64, base.Int64](layout, addr)
}

func newTestCache(t *testing.T, capacity int) (*Cache[base.Int64, base.Int64], *recorder) {
	t.Helper()
	rec := &recorder{}
	c, err := New[base.Int64, base.Int64](capacity, rec.write)
	require.NoError(t, err)
	return c, rec
}

func TestCacheBasics(t *testing.T) {
	t.Parallel()

	c, rec := newTestCache(t, 10)

	// Test cache miss
	_, hit := c.Find(100)
	assert.False(t, hit)

	n1 := makeTestNode(100)
	require.NoError(t, c.Add(n1))

	retrieved, hit := c.Find(100)
	assert.True(t, hit)
	assert.Same(t, n1, retrieved)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 10, c.Capacity())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Empty(t, rec.writes)

	c.ClearStats()
	assert.Zero(t, c.Stats().Hits)
}

func TestCacheInvalidSize(t *testing.T) {
	t.Parallel()

	_, err := New[base.Int64, base.Int64](0, func(*node) error { return nil })
	assert.ErrorIs(t, err, base.ErrInvalidArgument)

	_, err = New[base.Int64, base.Int64](4, nil)
	assert.ErrorIs(t, err, base.ErrInvalidArgument)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c, rec := newTestCache(t, 2)

	require.NoError(t, c.Add(makeTestNode(100)))
	require.NoError(t, c.Add(makeTestNode(200)))

	// Touch 100 so 200 becomes the oldest
	_, hit := c.Find(100)
	require.True(t, hit)

	require.NoError(t, c.Add(makeTestNode(300)))
	assert.Equal(t, []base.Address{200}, rec.writes)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Contains(100))
	assert.False(t, c.Contains(200))
	assert.True(t, c.Contains(300))
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestCacheCapacityOne(t *testing.T) {
	t.Parallel()

	c, rec := newTestCache(t, 1)

	for _, addr := range []base.Address{100, 200, 300} {
		require.NoError(t, c.Add(makeTestNode(addr)))
		assert.Equal(t, 1, c.Len())
	}

	assert.Equal(t, []base.Address{100, 200}, rec.writes)
	assert.True(t, c.Contains(300))
}

func TestCacheUpdate(t *testing.T) {
	t.Parallel()

	c, rec := newTestCache(t, 2)

	n1 := makeTestNode(100)
	require.NoError(t, c.Add(n1))

	// Same object is a no-op
	n1.NumKeys = 1
	require.NoError(t, c.Update(n1))
	assert.Equal(t, 1, c.Len())

	// A different object at the same address replaces the resident one
	replacement := makeTestNode(100)
	require.NoError(t, c.Update(replacement))
	got, hit := c.Find(100)
	require.True(t, hit)
	assert.Same(t, replacement, got)

	// Non-resident behaves like Add
	require.NoError(t, c.Update(makeTestNode(200)))
	require.NoError(t, c.Update(makeTestNode(300)))
	assert.Equal(t, []base.Address{100}, rec.writes)
	assert.Equal(t, 2, c.Len())
}

func TestCacheRemoveSkipsWriteBack(t *testing.T) {
	t.Parallel()

	c, rec := newTestCache(t, 4)

	require.NoError(t, c.Add(makeTestNode(100)))
	require.NoError(t, c.Add(makeTestNode(200)))

	c.Remove(100)
	c.Remove(999)
	assert.False(t, c.Contains(100))

	require.NoError(t, c.Flush())
	assert.Equal(t, []base.Address{200}, rec.writes)
}

func TestCacheFlush(t *testing.T) {
	t.Parallel()

	c, rec := newTestCache(t, 8)

	for _, addr := range []base.Address{100, 200, 300} {
		require.NoError(t, c.Add(makeTestNode(addr)))
	}

	require.NoError(t, c.Flush())
	assert.ElementsMatch(t, []base.Address{100, 200, 300}, rec.writes)
	assert.Zero(t, c.Len())
	assert.Equal(t, uint64(3), c.Stats().Flushed)

	// Flushing an empty cache writes nothing
	rec.writes = nil
	require.NoError(t, c.Flush())
	assert.Empty(t, rec.writes)
}

func TestCacheWriteFailure(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk on fire")
	c, rec := newTestCache(t, 1)

	require.NoError(t, c.Add(makeTestNode(100)))

	rec.fail = errDisk
	err := c.Add(makeTestNode(200))
	assert.ErrorIs(t, err, errDisk)

	// The victim is kept so its content is not lost
	assert.True(t, c.Contains(100))
	assert.False(t, c.Contains(200))

	err = c.Flush()
	assert.ErrorIs(t, err, errDisk)
	assert.Equal(t, 1, c.Len())

	rec.fail = nil
	require.NoError(t, c.Flush())
	assert.Equal(t, []base.Address{100}, rec.writes)
}

func TestCacheWriteFailureMovesVictimToFront(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk on fire")
	c, rec := newTestCache(t, 2)

	require.NoError(t, c.Add(makeTestNode(100)))
	require.NoError(t, c.Add(makeTestNode(200)))

	rec.fail = errDisk
	assert.ErrorIs(t, c.Add(makeTestNode(300)), errDisk)
	assert.True(t, c.Contains(100))
	assert.True(t, c.Contains(200))
	assert.False(t, c.Contains(300))

	// 100 was re-admitted as most recent, so 200 goes next
	rec.fail = nil
	require.NoError(t, c.Add(makeTestNode(300)))
	assert.Equal(t, []base.Address{200}, rec.writes)
	assert.True(t, c.Contains(100))
	assert.True(t, c.Contains(300))
	assert.False(t, c.Contains(200))
}
