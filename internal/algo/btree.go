// Package algo contains the in-node algorithms used for searching and
// rebalancing a b-tree: composite ordering, key search and slot moves.
// Helpers assume their preconditions hold and panic otherwise.
package algo

import (
	"sort"

	"github.com/alexhholmes/diskbtree/internal/base"
)

const searchThreshold = 16

// Compare orders (k1, v1) against (k2, v2) by key, then by value.
func Compare[K base.Item[K], V base.Item[V]](k1 K, v1 V, k2 K, v2 V) int {
	if c := k1.Compare(k2); c != 0 {
		return c
	}
	return v1.Compare(v2)
}

// FindIndex returns the first slot whose entry is not less than (k, v), and
// whether that slot holds exactly (k, v). For an internal node the index is
// also the child to descend into when the entry is not found.
func FindIndex[K base.Item[K], V base.Item[V]](n *base.Node[K, V], k K, v V) (int, bool) {
	var i int
	if n.NumKeys < searchThreshold {
		for i < n.NumKeys && Compare(n.Keys[i], n.Values[i], k, v) < 0 {
			i++
		}
	} else {
		i = sort.Search(n.NumKeys, func(j int) bool {
			return Compare(n.Keys[j], n.Values[j], k, v) >= 0
		})
	}
	return i, i < n.NumKeys && Compare(n.Keys[i], n.Values[i], k, v) == 0
}

// UpperBound returns the first slot whose entry is greater than (k, v).
func UpperBound[K base.Item[K], V base.Item[V]](n *base.Node[K, V], k K, v V) int {
	i, found := FindIndex(n, k, v)
	if found {
		i++
	}
	return i
}

// InsertAt shifts entries [i, NumKeys) right by one and stores (k, v) at i.
// Children are left alone.
func InsertAt[K base.Item[K], V base.Item[V]](n *base.Node[K, V], i int, k K, v V) {
	if n.IsFull() {
		panic("insert into full node")
	}
	copy(n.Keys[i+1:n.NumKeys+1], n.Keys[i:n.NumKeys])
	copy(n.Values[i+1:n.NumKeys+1], n.Values[i:n.NumKeys])
	n.Keys[i] = k
	n.Values[i] = v
	n.NumKeys++
}

// RemoveAt removes the entry at i, shifting later entries left. When the
// node is internal, child i+1 is removed with it.
func RemoveAt[K base.Item[K], V base.Item[V]](n *base.Node[K, V], i int) (K, V) {
	k, v := n.Keys[i], n.Values[i]
	copy(n.Keys[i:], n.Keys[i+1:n.NumKeys])
	copy(n.Values[i:], n.Values[i+1:n.NumKeys])
	if !n.Leaf {
		copy(n.Children[i+1:], n.Children[i+2:n.NumKeys+1])
		n.Children[n.NumKeys] = base.NilAddress
	}
	n.NumKeys--
	clearSlots(n, n.NumKeys, n.NumKeys+1)
	return k, v
}

// SplitChild moves the upper half of the full node child into sibling and
// lifts the median into parent at slot i, linking sibling as child i+1.
// child keeps the lower t-1 entries. sibling must be empty and carries the
// leaf flag of child afterwards.
func SplitChild[K base.Item[K], V base.Item[V]](parent *base.Node[K, V], i int, child, sibling *base.Node[K, V]) {
	if !child.IsFull() || parent.IsFull() {
		panic("split precondition violated")
	}
	t := (len(child.Keys) + 1) / 2

	sibling.Leaf = child.Leaf
	sibling.NumKeys = t - 1
	copy(sibling.Keys, child.Keys[t:])
	copy(sibling.Values, child.Values[t:])
	if !child.Leaf {
		copy(sibling.Children, child.Children[t:])
		clear(child.Children[t:])
	}

	mk, mv := child.Keys[t-1], child.Values[t-1]
	child.NumKeys = t - 1
	clearSlots(child, t-1, len(child.Keys))

	copy(parent.Children[i+2:parent.NumKeys+2], parent.Children[i+1:parent.NumKeys+1])
	parent.Children[i+1] = sibling.Addr
	InsertAt(parent, i, mk, mv)
}

// Merge folds the separator at parent slot i and every entry of right into
// left. right is child i+1 and is unlinked from parent; its content is left
// untouched for the caller to discard.
func Merge[K base.Item[K], V base.Item[V]](parent *base.Node[K, V], i int, left, right *base.Node[K, V]) {
	if left.NumKeys+right.NumKeys+1 > len(left.Keys) {
		panic("merge overflows node")
	}
	n := left.NumKeys
	left.Keys[n] = parent.Keys[i]
	left.Values[n] = parent.Values[i]
	copy(left.Keys[n+1:], right.Keys[:right.NumKeys])
	copy(left.Values[n+1:], right.Values[:right.NumKeys])
	if !left.Leaf {
		copy(left.Children[n+1:], right.Children[:right.NumKeys+1])
	}
	left.NumKeys = n + 1 + right.NumKeys

	RemoveAt(parent, i)
}

// RotateRight moves the last entry of left up into parent slot i and the old
// separator down to the front of right. left and right are children i and
// i+1.
func RotateRight[K base.Item[K], V base.Item[V]](parent *base.Node[K, V], i int, left, right *base.Node[K, V]) {
	if !right.Leaf {
		copy(right.Children[1:right.NumKeys+2], right.Children[:right.NumKeys+1])
		right.Children[0] = left.Children[left.NumKeys]
		left.Children[left.NumKeys] = base.NilAddress
	}
	InsertAt(right, 0, parent.Keys[i], parent.Values[i])

	last := left.NumKeys - 1
	parent.Keys[i], parent.Values[i] = left.Keys[last], left.Values[last]
	left.NumKeys--
	clearSlots(left, last, last+1)
}

// RotateLeft moves the first entry of right up into parent slot i and the old
// separator down to the end of left. left and right are children i and i+1.
func RotateLeft[K base.Item[K], V base.Item[V]](parent *base.Node[K, V], i int, left, right *base.Node[K, V]) {
	n := left.NumKeys
	left.Keys[n] = parent.Keys[i]
	left.Values[n] = parent.Values[i]
	if !left.Leaf {
		left.Children[n+1] = right.Children[0]
	}
	left.NumKeys++

	parent.Keys[i], parent.Values[i] = right.Keys[0], right.Values[0]

	copy(right.Keys, right.Keys[1:right.NumKeys])
	copy(right.Values, right.Values[1:right.NumKeys])
	if !right.Leaf {
		copy(right.Children, right.Children[1:right.NumKeys+1])
		right.Children[right.NumKeys] = base.NilAddress
	}
	right.NumKeys--
	clearSlots(right, right.NumKeys, right.NumKeys+1)
}

// clearSlots zeroes vacated key/value slots so stale items are not retained.
func clearSlots[K base.Item[K], V base.Item[V]](n *base.Node[K, V], from, to int) {
	clear(n.Keys[from:to])
	clear(n.Values[from:to])
}
