package freelist

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/alexhholmes/diskbtree/internal/base"
)

// Freelist reserves and releases fixed-size blocks of a store.
//
// Freed blocks form an intrusive singly-linked list: the first 8 bytes of a
// free block hold the address of the next free block, and only the head is
// kept in memory. When the list is empty, blocks are carved from the heap end.
// The head and heap pointers live in the store header and are written back by
// Save.
type Freelist struct {
	store     base.Store
	blockSize int64
	header    base.Header
	fresh     bool
	scratch   [base.AddressSize]byte
}

// Open loads the allocator state from the header at offset 0. An empty store
// gets a fresh header with the heap starting right after it; Fresh reports
// whether that happened.
func Open(store base.Store, blockSize int) (*Freelist, error) {
	if blockSize < base.AddressSize {
		return nil, errors.Wrapf(base.ErrInvalidArgument, "block size %d smaller than an address", blockSize)
	}

	f := &Freelist{store: store, blockSize: int64(blockSize)}

	buf := make([]byte, base.HeaderSize)
	n, err := store.ReadAt(buf, 0)
	switch {
	case n == 0 && errors.Is(err, io.EOF):
		f.header = base.Header{
			FreeHead:  base.NilAddress,
			HeapStart: base.HeaderSize,
			HeapEnd:   base.HeaderSize,
		}
		f.fresh = true
		return f, nil
	case n < base.HeaderSize:
		if err == nil || errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(base.ErrCorruption, "truncated header: %d of %d bytes", n, base.HeaderSize)
		}
		return nil, base.NewIOError("read header", 0, err)
	}

	f.header.Decode(buf)
	if err := f.header.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Fresh reports whether Open initialised a new header instead of loading one.
func (f *Freelist) Fresh() bool {
	return f.fresh
}

// Alloc returns the address of an unused block. The block content is
// undefined until the caller writes it.
func (f *Freelist) Alloc() (base.Address, error) {
	if f.header.FreeHead == base.NilAddress {
		addr := f.header.HeapEnd
		f.header.HeapEnd += base.Address(f.blockSize)
		return addr, nil
	}

	addr := f.header.FreeHead
	next, err := f.readNext(addr)
	if err != nil {
		return 0, err
	}
	f.header.FreeHead = next
	return addr, nil
}

// Free pushes addr onto the free list. The caller guarantees addr was handed
// out by Alloc exactly once and is no longer referenced.
func (f *Freelist) Free(addr base.Address) error {
	if !f.inHeap(addr) {
		return errors.Wrapf(base.ErrInvalidArgument, "free of address %d outside heap", addr)
	}
	binary.LittleEndian.PutUint64(f.scratch[:], uint64(f.header.FreeHead))
	if _, err := f.store.WriteAt(f.scratch[:], int64(addr)); err != nil {
		return base.NewIOError("write free link", addr, err)
	}
	f.header.FreeHead = addr
	return nil
}

// Save writes the header to offset 0.
func (f *Freelist) Save() error {
	buf := make([]byte, base.HeaderSize)
	f.header.Encode(buf)
	if _, err := f.store.WriteAt(buf, 0); err != nil {
		return base.NewIOError("write header", 0, err)
	}
	f.fresh = false
	return nil
}

// FreeCount walks the free list and returns its length.
func (f *Freelist) FreeCount() (int, error) {
	limit := int((f.header.HeapEnd - f.header.HeapStart) / base.Address(f.blockSize))
	count := 0
	for addr := f.header.FreeHead; addr != base.NilAddress; count++ {
		if count >= limit {
			return 0, errors.Wrap(base.ErrCorruption, "free list longer than heap")
		}
		next, err := f.readNext(addr)
		if err != nil {
			return 0, err
		}
		addr = next
	}
	return count, nil
}

// Contains reports whether addr is a block boundary inside the heap.
func (f *Freelist) Contains(addr base.Address) bool {
	return f.inHeap(addr)
}

func (f *Freelist) FreeHead() base.Address  { return f.header.FreeHead }
func (f *Freelist) HeapStart() base.Address { return f.header.HeapStart }
func (f *Freelist) HeapEnd() base.Address   { return f.header.HeapEnd }
func (f *Freelist) BlockSize() int          { return int(f.blockSize) }

func (f *Freelist) inHeap(addr base.Address) bool {
	if addr < f.header.HeapStart || addr >= f.header.HeapEnd {
		return false
	}
	return int64(addr-f.header.HeapStart)%f.blockSize == 0
}

func (f *Freelist) readNext(addr base.Address) (base.Address, error) {
	n, err := f.store.ReadAt(f.scratch[:], int64(addr))
	if n < base.AddressSize {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, base.NewIOError("read free link", addr, err)
	}
	next := base.Address(binary.LittleEndian.Uint64(f.scratch[:]))
	if next != base.NilAddress && !f.inHeap(next) {
		return 0, errors.Wrapf(base.ErrCorruption, "free link at %d points to %d outside heap", addr, next)
	}
	return next, nil
}
