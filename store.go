package diskbtree

import (
	"github.com/alexhholmes/diskbtree/internal/base"
	"github.com/alexhholmes/diskbtree/internal/storage"
)

// Store is the byte store a tree lives in. *os.File satisfies it.
type Store = base.Store

// FileStore is a Store backed by an exclusively locked file.
type FileStore = storage.File

// MemoryStore is a Store held in memory.
type MemoryStore = storage.Memory

// StoreStats holds store I/O statistics.
type StoreStats = storage.Stats

// OpenFileStore opens or creates the file at path and locks it. A second open
// of the same file fails with ErrLocked until the first is closed.
func OpenFileStore(path string) (*FileStore, error) {
	return storage.OpenFile(path)
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return storage.NewMemory()
}
