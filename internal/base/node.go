package base

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Item is the capability a key or value type needs to live in a tree: a total
// order and a fixed-width encoding. Load is called on the zero value and must
// not depend on its receiver.
type Item[T any] interface {
	Compare(other T) int
	Save() []byte
	Load(data []byte) (T, error)
}

// Node is the decoded form of one block. The slices always have full
// capacity (2t-1 keys and values, 2t children); only the first NumKeys
// entries (NumKeys+1 children for a branch) are meaningful.
type Node[K Item[K], V Item[V]] struct {
	Addr     Address
	Leaf     bool
	NumKeys  int
	Keys     []K
	Values   []V
	Children []Address
}

// NewNode returns an empty leaf bound to addr.
func NewNode[K Item[K], V Item[V]](l Layout, addr Address) *Node[K, V] {
	return &Node[K, V]{
		Addr:     addr,
		Leaf:     true,
		Keys:     make([]K, l.MaxKeys()),
		Values:   make([]V, l.MaxKeys()),
		Children: make([]Address, l.MaxChildren()),
	}
}

// IsFull reports whether the node holds 2t-1 keys.
func (n *Node[K, V]) IsFull() bool {
	return n.NumKeys == len(n.Keys)
}

// Serialize encodes the node into buf, which must hold at least
// l.BlockSize() bytes. Slots past NumKeys are left as they are in buf.
func (n *Node[K, V]) Serialize(l Layout, buf []byte) error {
	if n.NumKeys < 0 || n.NumKeys > l.MaxKeys() {
		return errors.Wrapf(ErrCapacityInvariant, "node %d has %d keys, max %d", n.Addr, n.NumKeys, l.MaxKeys())
	}
	if len(buf) < l.BlockSize() {
		return errors.Wrapf(ErrInvalidArgument, "buffer of %d bytes, block needs %d", len(buf), l.BlockSize())
	}

	if n.Leaf {
		buf[0] = 1
	} else {
		buf[0] = 0
	}
	binary.LittleEndian.PutUint32(buf[l.countOffset():], uint32(int32(n.NumKeys)))

	off := l.childrenOffset()
	for i := 0; i <= n.NumKeys; i++ {
		binary.LittleEndian.PutUint64(buf[off:], uint64(n.Children[i]))
		off += AddressSize
	}

	off = l.valuesOffset()
	for i := 0; i < n.NumKeys; i++ {
		data := n.Values[i].Save()
		if len(data) != l.ValueSize {
			return errors.Wrapf(ErrSerializationMismatch, "value %d of node %d saved %d bytes, declared %d",
				i, n.Addr, len(data), l.ValueSize)
		}
		copy(buf[off:], data)
		off += l.ValueSize
	}

	binary.LittleEndian.PutUint64(buf[l.selfOffset():], uint64(n.Addr))

	off = l.keysOffset()
	for i := 0; i < n.NumKeys; i++ {
		data := n.Keys[i].Save()
		if len(data) != l.KeySize {
			return errors.Wrapf(ErrSerializationMismatch, "key %d of node %d saved %d bytes, declared %d",
				i, n.Addr, len(data), l.KeySize)
		}
		copy(buf[off:], data)
		off += l.KeySize
	}

	return nil
}

// Deserialize decodes buf into n. The key count is read first since it
// decides how many slots carry data.
func (n *Node[K, V]) Deserialize(l Layout, buf []byte) error {
	if len(buf) < l.BlockSize() {
		return errors.Wrapf(ErrInvalidArgument, "buffer of %d bytes, block needs %d", len(buf), l.BlockSize())
	}

	switch buf[0] {
	case 0:
		n.Leaf = false
	case 1:
		n.Leaf = true
	default:
		return errors.Wrapf(ErrCorruption, "leaf flag %#x", buf[0])
	}

	count := int(int32(binary.LittleEndian.Uint32(buf[l.countOffset():])))
	if count < 0 || count > l.MaxKeys() {
		return errors.Wrapf(ErrCapacityInvariant, "decoded key count %d, max %d", count, l.MaxKeys())
	}
	n.NumKeys = count

	if len(n.Keys) != l.MaxKeys() {
		n.Keys = make([]K, l.MaxKeys())
		n.Values = make([]V, l.MaxKeys())
		n.Children = make([]Address, l.MaxChildren())
	}

	off := l.childrenOffset()
	for i := 0; i <= count; i++ {
		n.Children[i] = Address(binary.LittleEndian.Uint64(buf[off:]))
		off += AddressSize
	}

	var zeroV V
	off = l.valuesOffset()
	for i := 0; i < count; i++ {
		v, err := zeroV.Load(buf[off : off+l.ValueSize])
		if err != nil {
			return errors.Wrapf(err, "load value %d", i)
		}
		n.Values[i] = v
		off += l.ValueSize
	}

	n.Addr = Address(binary.LittleEndian.Uint64(buf[l.selfOffset():]))

	var zeroK K
	off = l.keysOffset()
	for i := 0; i < count; i++ {
		k, err := zeroK.Load(buf[off : off+l.KeySize])
		if err != nil {
			return errors.Wrapf(err, "load key %d", i)
		}
		n.Keys[i] = k
		off += l.KeySize
	}

	return nil
}
