package diskbtree

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeScenario(t *testing.T) {
	t.Parallel()

	tr, _ := setup(t, 2)
	insertKeys(t, tr, 10, 20, 5, 6, 12, 30, 7, 17)

	assert.Equal(t, []int64{5, 6, 7, 10, 12, 17, 20, 30}, keysOf(collect(t, tr.InOrderWalk())))
	require.NoError(t, tr.Verify())

	removed, found, err := tr.Delete(6, 0)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, Pair[Int64, Int64]{Key: 6, Value: 0}, removed)

	_, found, err = tr.Delete(13, 0)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, []int64{5, 7, 10, 12, 17, 20, 30}, keysOf(collect(t, tr.InOrderWalk())))
	require.NoError(t, tr.Verify())
}

func TestTreeSearch(t *testing.T) {
	t.Parallel()

	tr, _ := setup(t, 3)
	for i := int64(0); i < 100; i++ {
		require.NoError(t, tr.Insert(Int64(i), Int64(i*i)))
	}

	tests := []struct {
		name  string
		key   int64
		value int64
		found bool
	}{
		{"first", 0, 0, true},
		{"middle", 50, 2500, true},
		{"last", 99, 9801, true},
		{"wrong_value", 50, 0, false},
		{"below_range", -1, 1, false},
		{"above_range", 100, 10000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, found, err := tr.Search(Int64(tt.key), Int64(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, Int64(tt.key), p.Key)
				assert.Equal(t, Int64(tt.value), p.Value)
			}

			ok, err := tr.Contains(Int64(tt.key), Int64(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.found, ok)
		})
	}
}

func TestTreeEmpty(t *testing.T) {
	t.Parallel()

	tr, _ := setup(t, 2)

	assert.Empty(t, collect(t, tr.InOrderWalk()))
	assert.Empty(t, collect(t, tr.ReverseInOrderWalk()))
	assert.Empty(t, collect(t, tr.SearchBetween(MinInt64, MaxInt64, 0, 0)))

	_, found, err := tr.Search(1, 1)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = tr.Delete(1, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTreeInsertExistingIsNoop(t *testing.T) {
	t.Parallel()

	tr, _ := setup(t, 2)
	keys := []int64{8, 3, 9, 1, 4, 7, 2, 6, 5, 0}
	insertKeys(t, tr, keys...)
	before := collect(t, tr.InOrderWalk())

	insertKeys(t, tr, keys...)
	insertKeys(t, tr, 5, 5, 5)

	assert.Equal(t, before, collect(t, tr.InOrderWalk()))
	require.NoError(t, tr.Verify())
}

func TestTreeInsertExistingKeepsFullRoot(t *testing.T) {
	t.Parallel()

	tr, _ := setup(t, 2)

	// Grow until the root is a full internal node
	var inserted []int64
	for k := int64(1); ; k++ {
		require.Less(t, k, int64(1000))
		require.NoError(t, tr.Insert(Int64(k), 0))
		inserted = append(inserted, k)

		r, err := tr.getNode(tr.RootAddress())
		require.NoError(t, err)
		if r.IsFull() && !r.Leaf {
			break
		}
	}

	root := tr.RootAddress()
	before, err := tr.Stats()
	require.NoError(t, err)

	for _, k := range inserted {
		require.NoError(t, tr.Insert(Int64(k), 0))
	}

	after, err := tr.Stats()
	require.NoError(t, err)
	assert.Equal(t, root, tr.RootAddress())
	assert.Equal(t, before.HeapEnd, after.HeapEnd)
	assert.Equal(t, before.Nodes, after.Nodes)
	assert.Equal(t, before.Height, after.Height)

	// A new entry still splits it
	require.NoError(t, tr.Insert(Int64(len(inserted)+1), 0))
	assert.NotEqual(t, root, tr.RootAddress())
	require.NoError(t, tr.Verify())
}

func TestTreeDuplicateKeys(t *testing.T) {
	t.Parallel()

	tr, _ := setup(t, 2)

	// Same key with many values, interleaved with neighbours
	for v := int64(20); v > 0; v-- {
		require.NoError(t, tr.Insert(5, Int64(v)))
		require.NoError(t, tr.Insert(Int64(v%3+4), 100+Int64(v)))
	}
	require.NoError(t, tr.Verify())

	pairs := collect(t, tr.InOrderWalk())
	assert.True(t, slices.IsSortedFunc(pairs, func(a, b Pair[Int64, Int64]) int {
		if c := a.Key.Compare(b.Key); c != 0 {
			return c
		}
		return a.Value.Compare(b.Value)
	}))

	var values []int64
	for p, err := range tr.SearchBetween(5, 5, 0, 100) {
		require.NoError(t, err)
		values = append(values, int64(p.Value))
	}
	want := make([]int64, 20)
	for i := range want {
		want[i] = int64(i + 1)
	}
	assert.Equal(t, want, values)

	for v := int64(1); v <= 20; v++ {
		_, found, err := tr.Delete(5, Int64(v))
		require.NoError(t, err)
		require.True(t, found)
	}
	require.NoError(t, tr.Verify())

	for p, err := range tr.InOrderWalk() {
		require.NoError(t, err)
		assert.GreaterOrEqual(t, int64(p.Value), int64(100))
	}
}

func TestTreeReverseWalk(t *testing.T) {
	t.Parallel()

	for _, branching := range []int{2, 3, 7} {
		tr, _ := setup(t, branching, WithCacheSize(3))
		for i := int64(0); i < 300; i++ {
			require.NoError(t, tr.Insert(Int64((i*101)%300), 0))
		}

		forward := keysOf(collect(t, tr.InOrderWalk()))
		reverse := keysOf(collect(t, tr.ReverseInOrderWalk()))
		require.Len(t, forward, 300)

		slices.Reverse(reverse)
		assert.Equal(t, forward, reverse, "branching %d", branching)
		assert.True(t, slices.IsSorted(forward))
	}
}

func TestTreeWalkEarlyStop(t *testing.T) {
	t.Parallel()

	tr, _ := setup(t, 2)
	for i := int64(0); i < 50; i++ {
		require.NoError(t, tr.Insert(Int64(i), 0))
	}

	var got []int64
	for p, err := range tr.InOrderWalk() {
		require.NoError(t, err)
		got = append(got, int64(p.Key))
		if len(got) == 5 {
			break
		}
	}
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, got)

	got = got[:0]
	for p, err := range tr.ReverseInOrderWalk() {
		require.NoError(t, err)
		got = append(got, int64(p.Key))
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []int64{49, 48, 47}, got)

	got = got[:0]
	for p, err := range tr.SearchBetween(10, 40, 0, 0) {
		require.NoError(t, err)
		got = append(got, int64(p.Key))
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []int64{11, 12}, got)

	// Each call starts over
	assert.Len(t, collect(t, tr.SearchBetween(10, 40, 0, 0)), 29)
	assert.Len(t, collect(t, tr.SearchBetween(10, 40, 0, 0)), 29)
}

func TestTreeSearchBetween(t *testing.T) {
	t.Parallel()

	tr, _ := setup(t, 2, WithCacheSize(2))
	// Even keys 0..198, value 1
	for i := int64(0); i < 100; i++ {
		require.NoError(t, tr.Insert(Int64(i*2), 1))
	}

	evens := func(from, to int64) []int64 {
		var out []int64
		for k := from; k <= to; k += 2 {
			out = append(out, k)
		}
		return out
	}

	tests := []struct {
		name       string
		kMin, kMax int64
		vMin, vMax int64
		want       []int64
	}{
		{"bounds_present_excluded", 10, 20, 1, 1, []int64{12, 14, 16, 18}},
		{"lower_value_below_entry", 10, 20, 0, 1, []int64{10, 12, 14, 16, 18}},
		{"upper_value_above_entry", 10, 20, 1, 2, []int64{12, 14, 16, 18, 20}},
		{"bounds_absent", 9, 21, 0, 0, evens(10, 20)},
		{"whole_tree", -1, 1000, 0, 0, evens(0, 198)},
		{"adjacent_entries", 10, 12, 1, 1, nil},
		{"same_bound", 10, 10, 0, 5, []int64{10}},
		{"inverted", 50, 10, 0, 0, nil},
		{"below_everything", -10, -1, 0, 0, nil},
		{"above_everything", 199, 500, 0, 0, nil},
		{"tail", 190, int64(MaxInt64), 1, 0, []int64{192, 194, 196, 198}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, tr.SearchBetween(Int64(tt.kMin), Int64(tt.kMax), Int64(tt.vMin), Int64(tt.vMax)))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, keysOf(got))
		})
	}
}

func TestTreeSearchBetweenMatchesFilter(t *testing.T) {
	t.Parallel()

	tr, _ := setup(t, 3)
	var all []Pair[Int64, Int64]
	for i := int64(0); i < 60; i++ {
		p := Pair[Int64, Int64]{Key: Int64(i % 12), Value: Int64(i / 12)}
		all = append(all, p)
		require.NoError(t, tr.Insert(p.Key, p.Value))
	}

	less := func(k1, v1, k2, v2 Int64) bool {
		return k1 < k2 || (k1 == k2 && v1 < v2)
	}

	for kMin := Int64(-1); kMin <= 12; kMin += 3 {
		for kMax := kMin; kMax <= 13; kMax += 2 {
			for _, vb := range [][2]Int64{{0, 0}, {2, 3}, {4, 1}} {
				var want []Pair[Int64, Int64]
				for _, p := range all {
					if less(kMin, vb[0], p.Key, p.Value) && less(p.Key, p.Value, kMax, vb[1]) {
						want = append(want, p)
					}
				}
				slices.SortFunc(want, func(a, b Pair[Int64, Int64]) int {
					if less(a.Key, a.Value, b.Key, b.Value) {
						return -1
					}
					return 1
				})

				got := collect(t, tr.SearchBetween(kMin, kMax, vb[0], vb[1]))
				assert.Equal(t, want, got, "range (%d,%d)-(%d,%d)", kMin, vb[0], kMax, vb[1])
			}
		}
	}
}
