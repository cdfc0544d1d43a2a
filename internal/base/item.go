package base

import (
	"cmp"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

var (
	_ Item[Int32]  = Int32(0)
	_ Item[Int64]  = Int64(0)
	_ Item[Uint64] = Uint64(0)
)

// Int32 is a 4 byte key or value. Signed integers are stored big endian with
// the sign bit flipped so the encoded bytes sort like the numbers.
type Int32 int32

const Int32Size = 4

func (i Int32) Compare(other Int32) int {
	return cmp.Compare(i, other)
}

func (i Int32) Save() []byte {
	return binary.BigEndian.AppendUint32(make([]byte, 0, Int32Size), uint32(i)^(1<<31))
}

func (Int32) Load(data []byte) (Int32, error) {
	if len(data) != Int32Size {
		return 0, errors.Wrapf(ErrSerializationMismatch, "int32 needs %d bytes, got %d", Int32Size, len(data))
	}
	return Int32(int32(binary.BigEndian.Uint32(data) ^ (1 << 31))), nil
}

// Int64 is an 8 byte key or value.
type Int64 int64

const Int64Size = 8

func (i Int64) Compare(other Int64) int {
	return cmp.Compare(i, other)
}

func (i Int64) Save() []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, Int64Size), uint64(i)^(1<<63))
}

func (Int64) Load(data []byte) (Int64, error) {
	if len(data) != Int64Size {
		return 0, errors.Wrapf(ErrSerializationMismatch, "int64 needs %d bytes, got %d", Int64Size, len(data))
	}
	return Int64(int64(binary.BigEndian.Uint64(data) ^ (1 << 63))), nil
}

// Uint64 is an 8 byte unsigned key or value.
type Uint64 uint64

const Uint64Size = 8

func (u Uint64) Compare(other Uint64) int {
	return cmp.Compare(u, other)
}

func (u Uint64) Save() []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, Uint64Size), uint64(u))
}

func (Uint64) Load(data []byte) (Uint64, error) {
	if len(data) != Uint64Size {
		return 0, errors.Wrapf(ErrSerializationMismatch, "uint64 needs %d bytes, got %d", Uint64Size, len(data))
	}
	return Uint64(binary.BigEndian.Uint64(data)), nil
}

// MaxUint64 and MinInt64 are handy open bounds for range queries.
const (
	MaxUint64 = Uint64(math.MaxUint64)
	MinInt64  = Int64(math.MinInt64)
	MaxInt64  = Int64(math.MaxInt64)
)
