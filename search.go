package diskbtree

import (
	"iter"

	"github.com/alexhholmes/diskbtree/internal/algo"
)

// Search looks up the entry (k, v). The bool reports whether it exists.
func (tr *Tree[K, V]) Search(k K, v V) (Pair[K, V], bool, error) {
	if err := tr.checkEntry(k, v); err != nil {
		return Pair[K, V]{}, false, err
	}

	x, err := tr.getNode(tr.root)
	if err != nil {
		return Pair[K, V]{}, false, err
	}
	for {
		i, found := algo.FindIndex(x, k, v)
		if found {
			return Pair[K, V]{Key: x.Keys[i], Value: x.Values[i]}, true, nil
		}
		if x.Leaf {
			return Pair[K, V]{}, false, nil
		}
		if x, err = tr.getNode(x.Children[i]); err != nil {
			return Pair[K, V]{}, false, err
		}
	}
}

// Contains reports whether the entry (k, v) exists.
func (tr *Tree[K, V]) Contains(k K, v V) (bool, error) {
	_, found, err := tr.Search(k, v)
	return found, err
}

// SearchBetween returns the entries strictly between (kMin, vMin) and
// (kMax, vMax) in ascending order. The sequence reads the tree lazily and
// starts over on every range; the tree must not be modified while it is
// being consumed. A failure is yielded once as the error and ends the
// sequence.
func (tr *Tree[K, V]) SearchBetween(kMin, kMax K, vMin, vMax V) iter.Seq2[Pair[K, V], error] {
	return func(yield func(Pair[K, V], error) bool) {
		if err := tr.checkEntry(kMin, vMin); err != nil {
			yield(Pair[K, V]{}, err)
			return
		}
		if err := tr.checkEntry(kMax, vMax); err != nil {
			yield(Pair[K, V]{}, err)
			return
		}

		r := rangeScan[K, V]{tr: tr, kMin: kMin, vMin: vMin, kMax: kMax, vMax: vMax, yield: yield}
		if err := r.scan(tr.root); err != nil && !r.stopped {
			yield(Pair[K, V]{}, err)
		}
	}
}

// InOrderWalk returns every entry in ascending order. See SearchBetween for
// the sequence rules.
func (tr *Tree[K, V]) InOrderWalk() iter.Seq2[Pair[K, V], error] {
	return tr.walk(false)
}

// ReverseInOrderWalk returns every entry in descending order.
func (tr *Tree[K, V]) ReverseInOrderWalk() iter.Seq2[Pair[K, V], error] {
	return tr.walk(true)
}

func (tr *Tree[K, V]) walk(reverse bool) iter.Seq2[Pair[K, V], error] {
	return func(yield func(Pair[K, V], error) bool) {
		if tr.closed {
			yield(Pair[K, V]{}, ErrTreeClosed)
			return
		}

		w := walker[K, V]{tr: tr, yield: yield}
		var err error
		if reverse {
			err = w.descend(tr.root)
		} else {
			err = w.ascend(tr.root)
		}
		if err != nil && !w.stopped {
			yield(Pair[K, V]{}, err)
		}
	}
}

// walker holds the state of one full traversal. stopped is set when the
// consumer breaks out of the loop so nothing is yielded afterwards.
type walker[K Item[K], V Item[V]] struct {
	tr      *Tree[K, V]
	yield   func(Pair[K, V], error) bool
	stopped bool
}

func (w *walker[K, V]) emit(k K, v V) bool {
	if !w.yield(Pair[K, V]{Key: k, Value: v}, nil) {
		w.stopped = true
	}
	return !w.stopped
}

func (w *walker[K, V]) ascend(addr Address) error {
	x, err := w.tr.getNode(addr)
	if err != nil {
		return err
	}
	for i := 0; i < x.NumKeys; i++ {
		if !x.Leaf {
			if err := w.ascend(x.Children[i]); err != nil || w.stopped {
				return err
			}
		}
		if !w.emit(x.Keys[i], x.Values[i]) {
			return nil
		}
	}
	if !x.Leaf {
		return w.ascend(x.Children[x.NumKeys])
	}
	return nil
}

func (w *walker[K, V]) descend(addr Address) error {
	x, err := w.tr.getNode(addr)
	if err != nil {
		return err
	}
	if !x.Leaf {
		if err := w.descend(x.Children[x.NumKeys]); err != nil || w.stopped {
			return err
		}
	}
	for i := x.NumKeys - 1; i >= 0; i-- {
		if !w.emit(x.Keys[i], x.Values[i]) {
			return nil
		}
		if !x.Leaf {
			if err := w.descend(x.Children[i]); err != nil || w.stopped {
				return err
			}
		}
	}
	return nil
}

type rangeScan[K Item[K], V Item[V]] struct {
	tr         *Tree[K, V]
	kMin, kMax K
	vMin, vMax V
	yield      func(Pair[K, V], error) bool
	stopped    bool
}

// scan visits the subtree at addr from the first entry above the lower bound
// and stops at the first entry that reaches the upper bound. A parent notices
// the bound itself on its next separator, so reaching it needs no signal.
func (r *rangeScan[K, V]) scan(addr Address) error {
	x, err := r.tr.getNode(addr)
	if err != nil {
		return err
	}

	for i := algo.UpperBound(x, r.kMin, r.vMin); i < x.NumKeys; i++ {
		if !x.Leaf {
			if err := r.scan(x.Children[i]); err != nil || r.stopped {
				return err
			}
		}
		if algo.Compare(x.Keys[i], x.Values[i], r.kMax, r.vMax) >= 0 {
			return nil
		}
		if !r.yield(Pair[K, V]{Key: x.Keys[i], Value: x.Values[i]}, nil) {
			r.stopped = true
			return nil
		}
	}
	if !x.Leaf {
		return r.scan(x.Children[x.NumKeys])
	}
	return nil
}
