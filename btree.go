// Package diskbtree implements a b-tree that lives in a byte store rather
// than in memory. Entries are ordered (key, value) pairs: the value breaks
// ties between equal keys, so the same key may be stored with many values.
//
// Nodes occupy fixed-size blocks handed out by an allocator that keeps freed
// blocks in an intrusive free list. A bounded write-back cache holds decoded
// nodes; mutations are durable only after Save.
//
// A Tree is not safe for concurrent use.
package diskbtree

import (
	"io"
	"reflect"

	"github.com/pkg/errors"

	"github.com/alexhholmes/diskbtree/internal/base"
	"github.com/alexhholmes/diskbtree/internal/cache"
	"github.com/alexhholmes/diskbtree/internal/freelist"
)

type node[K Item[K], V Item[V]] = base.Node[K, V]

// Tree is a handle to one b-tree inside a store.
type Tree[K Item[K], V Item[V]] struct {
	layout base.Layout
	store  Store
	alloc  *freelist.Freelist
	cache  *cache.Cache[K, V]
	root   Address
	log    Logger
	opts   Options
	closed bool

	readBuf  []byte
	writeBuf []byte
}

// New creates an empty tree with branching factor t in store. keySize and
// valueSize are the exact lengths Save returns for K and V. An empty store is
// initialised; otherwise the tree is allocated next to whatever the store
// already holds. Call Save to make the tree durable and keep RootAddress to
// reopen it.
func New[K Item[K], V Item[V]](store Store, t, keySize, valueSize int, options ...Option) (*Tree[K, V], error) {
	tr, err := newTree[K, V](store, t, keySize, valueSize, options)
	if err != nil {
		return nil, err
	}

	root, err := tr.allocNode(true)
	if err != nil {
		return nil, err
	}
	tr.root = root.Addr

	tr.log.Info("created tree",
		"branching", t,
		"block_size", tr.layout.BlockSize(),
		"root", tr.root)
	return tr, nil
}

// Open attaches to a tree previously saved in store with its root at root.
// The parameters must match the ones the tree was created with.
func Open[K Item[K], V Item[V]](store Store, root Address, t, keySize, valueSize int, options ...Option) (*Tree[K, V], error) {
	tr, err := newTree[K, V](store, t, keySize, valueSize, options)
	if err != nil {
		return nil, err
	}
	if tr.alloc.Fresh() {
		return nil, errors.Wrap(ErrCorruption, "store has no header")
	}
	if !tr.alloc.Contains(root) {
		return nil, errors.Wrapf(ErrCorruption, "root %d is not a block of this store", root)
	}

	tr.root = root
	if _, err := tr.getNode(root); err != nil {
		return nil, errors.WithMessage(err, "load root")
	}

	tr.log.Info("opened tree",
		"branching", t,
		"block_size", tr.layout.BlockSize(),
		"root", tr.root,
		"heap_end", tr.alloc.HeapEnd())
	return tr, nil
}

func newTree[K Item[K], V Item[V]](store Store, t, keySize, valueSize int, options []Option) (*Tree[K, V], error) {
	if isAbsent(store) {
		return nil, errors.Wrap(ErrInvalidArgument, "nil store")
	}
	layout, err := base.NewLayout(t, keySize, valueSize)
	if err != nil {
		return nil, err
	}
	opts, err := buildOptions(options)
	if err != nil {
		return nil, err
	}

	alloc, err := freelist.Open(store, layout.BlockSize())
	if err != nil {
		return nil, err
	}

	tr := &Tree[K, V]{
		layout:   layout,
		store:    store,
		alloc:    alloc,
		log:      opts.logger,
		opts:     opts,
		readBuf:  make([]byte, layout.BlockSize()),
		writeBuf: make([]byte, layout.BlockSize()),
	}

	tr.cache, err = cache.New[K, V](opts.cacheSize, tr.writeNode)
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// RootAddress returns the block address of the current root. It changes when
// the root splits or collapses.
func (tr *Tree[K, V]) RootAddress() Address {
	return tr.root
}

// BlockSize returns the number of bytes one node occupies in the store.
func (tr *Tree[K, V]) BlockSize() int {
	return tr.layout.BlockSize()
}

// BranchingFactor returns t.
func (tr *Tree[K, V]) BranchingFactor() int {
	return tr.layout.T
}

// Save writes every resident node and the allocator header, then syncs the
// store unless disabled with WithSyncOnSave.
func (tr *Tree[K, V]) Save() error {
	if tr.closed {
		return ErrTreeClosed
	}

	resident := tr.cache.Len()
	if err := tr.cache.Flush(); err != nil {
		tr.log.Error("flush failed", "error", err)
		return err
	}
	if err := tr.alloc.Save(); err != nil {
		return err
	}
	if tr.opts.syncOnSave {
		if err := tr.store.Sync(); err != nil {
			return base.NewIOError("sync", 0, err)
		}
	}

	tr.log.Info("saved tree",
		"root", tr.root,
		"flushed", resident,
		"heap_end", tr.alloc.HeapEnd())
	return nil
}

// Close saves the tree and invalidates the handle. The store stays open.
func (tr *Tree[K, V]) Close() error {
	if tr.closed {
		tr.log.Warn("tree already closed", "root", tr.root)
		return ErrTreeClosed
	}
	if err := tr.Save(); err != nil {
		return err
	}
	tr.closed = true
	return nil
}

// getNode returns the node at addr, decoding it into the cache on a miss.
func (tr *Tree[K, V]) getNode(addr Address) (*node[K, V], error) {
	if n, ok := tr.cache.Find(addr); ok {
		return n, nil
	}

	n, err := tr.readNode(addr)
	if err != nil {
		return nil, err
	}
	if err := tr.cache.Add(n); err != nil {
		tr.log.Error("write-back failed", "error", err)
		return nil, err
	}
	return n, nil
}

// allocNode reserves a block and returns an empty resident node for it.
func (tr *Tree[K, V]) allocNode(leaf bool) (*node[K, V], error) {
	addr, err := tr.alloc.Alloc()
	if err != nil {
		return nil, err
	}

	n := base.NewNode[K, V](tr.layout, addr)
	n.Leaf = leaf
	if err := tr.cache.Add(n); err != nil {
		tr.log.Error("write-back failed", "error", err)
		return nil, err
	}
	return n, nil
}

// freeNode drops n from the cache without writing it and releases its block.
// The cache entry must go first so no later eviction overwrites the free
// list link stored in the block.
func (tr *Tree[K, V]) freeNode(n *node[K, V]) error {
	tr.cache.Remove(n.Addr)
	return tr.alloc.Free(n.Addr)
}

// touch marks mutated nodes resident again. A node may have been written
// back and evicted between being loaded and being mutated; re-adding it
// keeps the mutation from being lost.
func (tr *Tree[K, V]) touch(nodes ...*node[K, V]) error {
	for _, n := range nodes {
		if err := tr.cache.Update(n); err != nil {
			tr.log.Error("write-back failed", "error", err)
			return err
		}
	}
	return nil
}

func (tr *Tree[K, V]) readNode(addr Address) (*node[K, V], error) {
	n, err := tr.store.ReadAt(tr.readBuf, int64(addr))
	if n < len(tr.readBuf) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, base.NewIOError("read node", addr, err)
	}

	nd := base.NewNode[K, V](tr.layout, base.NilAddress)
	if err := nd.Deserialize(tr.layout, tr.readBuf); err != nil {
		return nil, errors.WithMessagef(err, "decode node %d", addr)
	}
	if nd.Addr != addr {
		return nil, errors.Wrapf(ErrCorruption, "block %d claims address %d", addr, nd.Addr)
	}
	return nd, nil
}

func (tr *Tree[K, V]) writeNode(n *node[K, V]) error {
	if err := n.Serialize(tr.layout, tr.writeBuf); err != nil {
		return errors.WithMessagef(err, "encode node %d", n.Addr)
	}
	if _, err := tr.store.WriteAt(tr.writeBuf, int64(n.Addr)); err != nil {
		return base.NewIOError("write node", n.Addr, err)
	}
	return nil
}

// checkEntry validates a key/value pair passed in by the caller.
func (tr *Tree[K, V]) checkEntry(k K, v V) error {
	if tr.closed {
		return ErrTreeClosed
	}
	if isAbsent(k) {
		return errors.Wrap(ErrInvalidArgument, "absent key")
	}
	if isAbsent(v) {
		return errors.Wrap(ErrInvalidArgument, "absent value")
	}
	return nil
}

// checkSizes makes sure an entry encodes to the declared sizes before it
// enters a node, so the mismatch surfaces here rather than at write-back.
func (tr *Tree[K, V]) checkSizes(k K, v V) error {
	if n := len(k.Save()); n != tr.layout.KeySize {
		return errors.Wrapf(ErrSerializationMismatch, "key encodes to %d bytes, want %d", n, tr.layout.KeySize)
	}
	if n := len(v.Save()); n != tr.layout.ValueSize {
		return errors.Wrapf(ErrSerializationMismatch, "value encodes to %d bytes, want %d", n, tr.layout.ValueSize)
	}
	return nil
}

// isAbsent reports a nil interface or a nil pointer-like value.
func isAbsent(x any) bool {
	if x == nil {
		return true
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
