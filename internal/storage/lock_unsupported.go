//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package storage

import "os"

// No advisory locking here; exclusive access is the caller's job.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }

func syncFile(f *os.File) error {
	return f.Sync()
}
