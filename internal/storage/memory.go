package storage

import (
	"io"

	"github.com/pkg/errors"
)

// Memory is a growable in-memory store. Gaps created by writing past the end
// read back as zeros.
type Memory struct {
	data []byte
	counters
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// ReadAt follows the io.ReaderAt contract: a read that runs past the end
// returns the bytes available and io.EOF.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf("negative offset %d", off)
	}
	m.reads.Add(1)
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	m.read.Add(uint64(n))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes p at off, growing the store as needed.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf("negative offset %d", off)
	}
	m.writes.Add(1)
	if end := off + int64(len(p)); end > int64(len(m.data)) {
		if end > int64(cap(m.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(m.data))))
			copy(grown, m.data)
			m.data = grown
		} else {
			m.data = m.data[:end]
		}
	}
	n := copy(m.data[off:], p)
	m.written.Add(uint64(n))
	return n, nil
}

// Sync is a no-op.
func (m *Memory) Sync() error {
	m.syncs.Add(1)
	return nil
}

// Size returns the number of bytes written so far.
func (m *Memory) Size() int64 {
	return int64(len(m.data))
}

// Bytes exposes the raw contents. The slice is invalidated by the next write.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Stats returns I/O statistics
func (m *Memory) Stats() Stats {
	return m.counters.stats()
}
