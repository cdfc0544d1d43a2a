package diskbtree

import (
	"github.com/pkg/errors"

	"github.com/alexhholmes/diskbtree/internal/algo"
)

// Delete removes the entry (k, v) and returns it. The bool is false when the
// entry does not exist, in which case the tree is unchanged.
//
// Every node the deletion descends into is first brought up to at least t
// entries, by rotation from a sibling or by merging with one, so removing an
// entry from a leaf never leaves it underfull.
func (tr *Tree[K, V]) Delete(k K, v V) (Pair[K, V], bool, error) {
	if err := tr.checkEntry(k, v); err != nil {
		return Pair[K, V]{}, false, err
	}

	r, err := tr.getNode(tr.root)
	if err != nil {
		return Pair[K, V]{}, false, err
	}
	return tr.delete(r, k, v)
}

func (tr *Tree[K, V]) delete(x *node[K, V], k K, v V) (Pair[K, V], bool, error) {
	t := tr.layout.T
	i, found := algo.FindIndex(x, k, v)

	if found {
		if x.Leaf {
			rk, rv := algo.RemoveAt(x, i)
			return Pair[K, V]{Key: rk, Value: rv}, true, tr.touch(x)
		}
		return tr.deleteInternal(x, i)
	}

	if x.Leaf {
		return Pair[K, V]{}, false, nil
	}

	child, err := tr.getNode(x.Children[i])
	if err != nil {
		return Pair[K, V]{}, false, err
	}
	if child.NumKeys < t {
		if child, err = tr.fill(x, i, child); err != nil {
			return Pair[K, V]{}, false, err
		}
	}
	return tr.delete(child, k, v)
}

// deleteInternal removes the entry at slot i of the internal node x.
func (tr *Tree[K, V]) deleteInternal(x *node[K, V], i int) (Pair[K, V], bool, error) {
	t := tr.layout.T
	removed := Pair[K, V]{Key: x.Keys[i], Value: x.Values[i]}

	left, err := tr.getNode(x.Children[i])
	if err != nil {
		return Pair[K, V]{}, false, err
	}
	if left.NumKeys >= t {
		pk, pv, err := tr.maximum(left)
		if err != nil {
			return Pair[K, V]{}, false, err
		}
		x.Keys[i], x.Values[i] = pk, pv
		if err := tr.touch(x); err != nil {
			return Pair[K, V]{}, false, err
		}
		if _, _, err := tr.delete(left, pk, pv); err != nil {
			return Pair[K, V]{}, false, err
		}
		return removed, true, nil
	}

	right, err := tr.getNode(x.Children[i+1])
	if err != nil {
		return Pair[K, V]{}, false, err
	}
	if right.NumKeys >= t {
		sk, sv, err := tr.minimum(right)
		if err != nil {
			return Pair[K, V]{}, false, err
		}
		x.Keys[i], x.Values[i] = sk, sv
		if err := tr.touch(x); err != nil {
			return Pair[K, V]{}, false, err
		}
		if _, _, err := tr.delete(right, sk, sv); err != nil {
			return Pair[K, V]{}, false, err
		}
		return removed, true, nil
	}

	merged, err := tr.merge(x, i, left, right)
	if err != nil {
		return Pair[K, V]{}, false, err
	}
	return tr.delete(merged, removed.Key, removed.Value)
}

// fill brings child, at slot i of x and holding t-1 entries, up to t entries
// and returns the node to descend into. A missing sibling at either edge is
// nil, never an empty node.
func (tr *Tree[K, V]) fill(x *node[K, V], i int, child *node[K, V]) (*node[K, V], error) {
	t := tr.layout.T

	var left, right *node[K, V]
	var err error
	if i > 0 {
		if left, err = tr.getNode(x.Children[i-1]); err != nil {
			return nil, err
		}
	}
	if i < x.NumKeys {
		if right, err = tr.getNode(x.Children[i+1]); err != nil {
			return nil, err
		}
	}

	switch {
	case left != nil && left.NumKeys >= t:
		algo.RotateRight(x, i-1, left, child)
		return child, tr.touch(left, child, x)
	case right != nil && right.NumKeys >= t:
		algo.RotateLeft(x, i, child, right)
		return child, tr.touch(child, right, x)
	case left != nil:
		return tr.merge(x, i-1, left, child)
	case right != nil:
		return tr.merge(x, i, child, right)
	default:
		return nil, errors.Wrapf(ErrCapacityInvariant, "node %d has no siblings", child.Addr)
	}
}

// merge folds the separator at slot i of parent and right into left, then
// frees right. A root left without entries is freed and left takes its
// place.
func (tr *Tree[K, V]) merge(parent *node[K, V], i int, left, right *node[K, V]) (*node[K, V], error) {
	algo.Merge(parent, i, left, right)

	if err := tr.touch(left); err != nil {
		return nil, err
	}
	if err := tr.freeNode(right); err != nil {
		return nil, err
	}

	if parent.NumKeys > 0 {
		return left, tr.touch(parent)
	}
	if parent.Addr != tr.root {
		return nil, errors.Wrapf(ErrCapacityInvariant, "non-root node %d emptied by merge", parent.Addr)
	}
	if err := tr.freeNode(parent); err != nil {
		return nil, err
	}
	tr.root = left.Addr
	return left, nil
}

// maximum returns the largest entry of the subtree rooted at x.
func (tr *Tree[K, V]) maximum(x *node[K, V]) (K, V, error) {
	var err error
	for !x.Leaf {
		if x, err = tr.getNode(x.Children[x.NumKeys]); err != nil {
			var k K
			var v V
			return k, v, err
		}
	}
	return x.Keys[x.NumKeys-1], x.Values[x.NumKeys-1], nil
}

// minimum returns the smallest entry of the subtree rooted at x.
func (tr *Tree[K, V]) minimum(x *node[K, V]) (K, V, error) {
	var err error
	for !x.Leaf {
		if x, err = tr.getNode(x.Children[0]); err != nil {
			var k K
			var v V
			return k, v, err
		}
	}
	return x.Keys[0], x.Values[0], nil
}
