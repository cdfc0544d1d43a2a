package diskbtree

import (
	"github.com/pkg/errors"

	"github.com/alexhholmes/diskbtree/internal/algo"
	"github.com/alexhholmes/diskbtree/internal/cache"
)

// Stats describes the shape of the tree and the activity of its cache.
type Stats struct {
	Height   int // Levels, 1 for a tree that is a single leaf.
	Nodes    int
	Entries  int
	Resident int // Nodes currently held in the cache.

	Cache cache.Stats

	HeapEnd    Address
	FreeBlocks int
}

// Stats walks the whole tree. It loads every node through the cache, so it
// costs as much I/O as a full walk.
func (tr *Tree[K, V]) Stats() (Stats, error) {
	if tr.closed {
		return Stats{}, ErrTreeClosed
	}

	var st Stats
	if err := tr.countNode(tr.root, 1, &st); err != nil {
		return Stats{}, err
	}

	free, err := tr.alloc.FreeCount()
	if err != nil {
		return Stats{}, err
	}
	st.FreeBlocks = free
	st.HeapEnd = tr.alloc.HeapEnd()
	st.Resident = tr.cache.Len()
	st.Cache = tr.cache.Stats()
	return st, nil
}

func (tr *Tree[K, V]) countNode(addr Address, depth int, st *Stats) error {
	x, err := tr.getNode(addr)
	if err != nil {
		return err
	}
	st.Nodes++
	st.Entries += x.NumKeys
	st.Height = max(st.Height, depth)
	if x.Leaf {
		return nil
	}
	for i := 0; i <= x.NumKeys; i++ {
		if err := tr.countNode(x.Children[i], depth+1, st); err != nil {
			return err
		}
	}
	return nil
}

// bound is an exclusive limit on the entries of a subtree; nil is unbounded.
type bound[K Item[K], V Item[V]] struct {
	key   K
	value V
}

// Verify checks every structural rule of the tree: entry counts per node,
// strictly ascending entries, separators bounding their subtrees, child
// addresses inside the heap and all leaves on the same level.
func (tr *Tree[K, V]) Verify() error {
	if tr.closed {
		return ErrTreeClosed
	}
	leafDepth := -1
	return tr.verifyNode(tr.root, 0, nil, nil, &leafDepth)
}

func (tr *Tree[K, V]) verifyNode(addr Address, depth int, lo, hi *bound[K, V], leafDepth *int) error {
	if !tr.alloc.Contains(addr) {
		return errors.Wrapf(ErrCorruption, "child address %d outside heap", addr)
	}
	x, err := tr.getNode(addr)
	if err != nil {
		return err
	}

	if x.NumKeys > tr.layout.MaxKeys() {
		return errors.Wrapf(ErrCapacityInvariant, "node %d holds %d entries, max %d", addr, x.NumKeys, tr.layout.MaxKeys())
	}
	if addr != tr.root && x.NumKeys < tr.layout.MinKeys() {
		return errors.Wrapf(ErrCapacityInvariant, "node %d holds %d entries, min %d", addr, x.NumKeys, tr.layout.MinKeys())
	}

	for i := 0; i < x.NumKeys; i++ {
		if i > 0 && algo.Compare(x.Keys[i-1], x.Values[i-1], x.Keys[i], x.Values[i]) >= 0 {
			return errors.Wrapf(ErrCorruption, "node %d entries out of order at slot %d", addr, i)
		}
		if lo != nil && algo.Compare(x.Keys[i], x.Values[i], lo.key, lo.value) <= 0 {
			return errors.Wrapf(ErrCorruption, "node %d slot %d below its separator", addr, i)
		}
		if hi != nil && algo.Compare(x.Keys[i], x.Values[i], hi.key, hi.value) >= 0 {
			return errors.Wrapf(ErrCorruption, "node %d slot %d above its separator", addr, i)
		}
	}

	if x.Leaf {
		switch {
		case *leafDepth < 0:
			*leafDepth = depth
		case *leafDepth != depth:
			return errors.Wrapf(ErrCorruption, "leaf %d at depth %d, expected %d", addr, depth, *leafDepth)
		}
		return nil
	}

	if x.NumKeys == 0 {
		return errors.Wrapf(ErrCapacityInvariant, "internal node %d without entries", addr)
	}

	for i := 0; i <= x.NumKeys; i++ {
		childLo, childHi := lo, hi
		if i > 0 {
			childLo = &bound[K, V]{key: x.Keys[i-1], value: x.Values[i-1]}
		}
		if i < x.NumKeys {
			childHi = &bound[K, V]{key: x.Keys[i], value: x.Values[i]}
		}
		if err := tr.verifyNode(x.Children[i], depth+1, childLo, childHi, leafDepth); err != nil {
			return err
		}
	}
	return nil
}
