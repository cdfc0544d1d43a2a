package base

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// HeaderSize is the fixed header at offset 0 of every store.
	// Layout: [FreeHead: 8][HeapStart: 8][HeapEnd: 8], little endian.
	HeaderSize = 24

	// AddressSize is the on-disk width of a block address.
	AddressSize = 8

	// NilAddress marks an empty free list. Offset 0 always holds the header, so
	// no block can live there.
	NilAddress Address = 0
)

// Address is a byte offset of a block inside the backing store.
type Address int64

// Store is the seekable byte store the tree lives in. Positioned reads and
// writes replace the seek+read/seek+write pairs of a stream; *os.File
// satisfies it.
type Store interface {
	io.ReaderAt
	io.WriterAt
	Sync() error
}

// Header is the allocator state persisted at the start of the store.
type Header struct {
	FreeHead  Address
	HeapStart Address
	HeapEnd   Address
}

// Encode writes the header into buf, which must hold HeaderSize bytes.
func (h *Header) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(h.FreeHead))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(h.HeapStart))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.HeapEnd))
}

// Decode reads the header from buf.
func (h *Header) Decode(buf []byte) {
	h.FreeHead = Address(binary.LittleEndian.Uint64(buf[0:8]))
	h.HeapStart = Address(binary.LittleEndian.Uint64(buf[8:16]))
	h.HeapEnd = Address(binary.LittleEndian.Uint64(buf[16:24]))
}

// Validate checks the pointers are consistent with each other.
func (h *Header) Validate() error {
	if h.HeapStart < HeaderSize {
		return errors.Wrapf(ErrCorruption, "heap start %d inside header", h.HeapStart)
	}
	if h.HeapEnd < h.HeapStart {
		return errors.Wrapf(ErrCorruption, "heap end %d before heap start %d", h.HeapEnd, h.HeapStart)
	}
	if h.FreeHead != NilAddress && (h.FreeHead < h.HeapStart || h.FreeHead >= h.HeapEnd) {
		return errors.Wrapf(ErrCorruption, "free list head %d outside heap", h.FreeHead)
	}
	return nil
}

// Layout describes the fixed block format of one tree.
//
// NODE BLOCK LAYOUT (t = branching factor):
// ┌──────────────────────────────────────────────────────────────┐
// │ IsLeaf (1 byte)                                              │
// ├──────────────────────────────────────────────────────────────┤
// │ NumKeys (int32)                                              │
// ├──────────────────────────────────────────────────────────────┤
// │ Children: 2t × int64 (first NumKeys+1 meaningful)            │
// ├──────────────────────────────────────────────────────────────┤
// │ Values: (2t-1) × ValueSize (first NumKeys meaningful)        │
// ├──────────────────────────────────────────────────────────────┤
// │ Self address (int64)                                         │
// ├──────────────────────────────────────────────────────────────┤
// │ Keys: (2t-1) × KeySize (first NumKeys meaningful)            │
// └──────────────────────────────────────────────────────────────┘
type Layout struct {
	T         int
	KeySize   int
	ValueSize int
}

// NewLayout validates the tree parameters.
func NewLayout(t, keySize, valueSize int) (Layout, error) {
	if t < 2 {
		return Layout{}, errors.Wrapf(ErrInvalidArgument, "branching factor %d must be at least 2", t)
	}
	if keySize <= 0 {
		return Layout{}, errors.Wrapf(ErrInvalidArgument, "key size %d must be positive", keySize)
	}
	if valueSize <= 0 {
		return Layout{}, errors.Wrapf(ErrInvalidArgument, "value size %d must be positive", valueSize)
	}
	return Layout{T: t, KeySize: keySize, ValueSize: valueSize}, nil
}

// MaxKeys is 2t-1.
func (l Layout) MaxKeys() int {
	return 2*l.T - 1
}

// MinKeys is t-1, the lower bound for every non-root node.
func (l Layout) MinKeys() int {
	return l.T - 1
}

// MaxChildren is 2t.
func (l Layout) MaxChildren() int {
	return 2 * l.T
}

// BlockSize is the number of bytes one node occupies in the store.
func (l Layout) BlockSize() int {
	return 1 + 4 + AddressSize*l.MaxChildren() + l.ValueSize*l.MaxKeys() + AddressSize + l.KeySize*l.MaxKeys()
}

func (l Layout) countOffset() int    { return 1 }
func (l Layout) childrenOffset() int { return 5 }
func (l Layout) valuesOffset() int   { return l.childrenOffset() + AddressSize*l.MaxChildren() }
func (l Layout) selfOffset() int     { return l.valuesOffset() + l.ValueSize*l.MaxKeys() }
func (l Layout) keysOffset() int     { return l.selfOffset() + AddressSize }
