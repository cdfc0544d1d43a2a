// Package storage provides the byte stores a tree can live in.
package storage

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrLocked is returned when another handle already holds the file.
var ErrLocked = errors.New("store is locked by another handle")

// Stats holds I/O statistics
type Stats struct {
	Reads   uint64
	Writes  uint64
	Syncs   uint64
	Read    uint64
	Written uint64
}

type counters struct {
	reads   atomic.Uint64
	writes  atomic.Uint64
	syncs   atomic.Uint64
	read    atomic.Uint64
	written atomic.Uint64
}

func (c *counters) stats() Stats {
	return Stats{
		Reads:   c.reads.Load(),
		Writes:  c.writes.Load(),
		Syncs:   c.syncs.Load(),
		Read:    c.read.Load(),
		Written: c.written.Load(),
	}
}

// File is a store backed by a regular file. The file is locked exclusively
// for the lifetime of the handle where the platform supports it.
type File struct {
	file *os.File
	counters
}

// OpenFile opens or creates the file at path.
func OpenFile(path string) (*File, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}

	if err := lockFile(file); err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "lock %s", path)
	}

	return &File{file: file}, nil
}

// ReadAt reads len(p) bytes at off.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	f.reads.Add(1)
	n, err := f.file.ReadAt(p, off)
	f.read.Add(uint64(n))
	return n, err
}

// WriteAt writes p at off, extending the file when needed.
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	f.writes.Add(1)
	n, err := f.file.WriteAt(p, off)
	f.written.Add(uint64(n))
	if err == nil && n != len(p) {
		return n, io.ErrShortWrite
	}
	return n, err
}

// Sync flushes written data to stable storage.
func (f *File) Sync() error {
	f.syncs.Add(1)
	return syncFile(f.file)
}

// Size returns the current file length.
func (f *File) Size() (int64, error) {
	info, err := f.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Name returns the path the file was opened with.
func (f *File) Name() string {
	return f.file.Name()
}

// Close releases the lock and closes the file.
func (f *File) Close() error {
	unlockErr := unlockFile(f.file)
	if err := f.file.Close(); err != nil {
		return err
	}
	return unlockErr
}

// Stats returns I/O statistics
func (f *File) Stats() Stats {
	return f.counters.stats()
}
