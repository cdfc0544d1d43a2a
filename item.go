package diskbtree

import "github.com/alexhholmes/diskbtree/internal/base"

// Item is the capability a key or value type needs: a three-way total order
// and a fixed-size binary form. Save must always return the size declared when
// the tree was created. Load is called on the zero value with exactly that
// many bytes.
type Item[T any] = base.Item[T]

// Address is a byte offset of a node block inside the store.
type Address = base.Address

// Fixed-size items whose binary form sorts like their numeric value.
type (
	Int32  = base.Int32
	Int64  = base.Int64
	Uint64 = base.Uint64
)

// Declared sizes of the built-in items.
const (
	Int32Size  = base.Int32Size
	Int64Size  = base.Int64Size
	Uint64Size = base.Uint64Size
)

// Pair is one composite entry of the tree.
type Pair[K Item[K], V Item[V]] struct {
	Key   K
	Value V
}

// Handy open bounds for SearchBetween.
const (
	MinInt64  = base.MinInt64
	MaxInt64  = base.MaxInt64
	MaxUint64 = base.MaxUint64
)
