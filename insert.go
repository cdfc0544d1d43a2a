package diskbtree

import (
	"github.com/alexhholmes/diskbtree/internal/algo"
)

// Insert adds the entry (k, v). Inserting an entry that already exists does
// nothing, not even split a full root.
//
// Full nodes are split on the way down, so a split never has to travel back
// up the tree: when the root is full a new root is placed above it first.
func (tr *Tree[K, V]) Insert(k K, v V) error {
	if err := tr.checkEntry(k, v); err != nil {
		return err
	}
	if err := tr.checkSizes(k, v); err != nil {
		return err
	}

	r, err := tr.getNode(tr.root)
	if err != nil {
		return err
	}

	if r.IsFull() {
		// A present entry leaves a full root unsplit
		if _, found, err := tr.Search(k, v); err != nil || found {
			return err
		}
		s, err := tr.allocNode(false)
		if err != nil {
			return err
		}
		s.Children[0] = r.Addr
		if _, err := tr.splitChild(s, 0, r); err != nil {
			return err
		}
		tr.root = s.Addr
		r = s
	}

	return tr.insertNonFull(r, k, v)
}

// insertNonFull descends from x, which has room for one more entry.
func (tr *Tree[K, V]) insertNonFull(x *node[K, V], k K, v V) error {
	for {
		i, found := algo.FindIndex(x, k, v)
		if found {
			return nil
		}

		if x.Leaf {
			algo.InsertAt(x, i, k, v)
			return tr.touch(x)
		}

		child, err := tr.getNode(x.Children[i])
		if err != nil {
			return err
		}
		if child.IsFull() {
			sibling, err := tr.splitChild(x, i, child)
			if err != nil {
				return err
			}
			switch c := algo.Compare(k, v, x.Keys[i], x.Values[i]); {
			case c == 0:
				// The entry was the median just lifted into x
				return nil
			case c > 0:
				child = sibling
			}
		}
		x = child
	}
}

// splitChild splits the full child at slot i of parent and returns the new
// right sibling.
func (tr *Tree[K, V]) splitChild(parent *node[K, V], i int, child *node[K, V]) (*node[K, V], error) {
	sibling, err := tr.allocNode(child.Leaf)
	if err != nil {
		return nil, err
	}
	algo.SplitChild(parent, i, child, sibling)
	if err := tr.touch(child, sibling, parent); err != nil {
		return nil, err
	}
	return sibling, nil
}
