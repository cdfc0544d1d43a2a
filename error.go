package diskbtree

import (
	"github.com/pkg/errors"

	"github.com/alexhholmes/diskbtree/internal/base"
	"github.com/alexhholmes/diskbtree/internal/storage"
)

//goland:noinspection GoUnusedGlobalVariable
var (
	ErrTreeClosed = errors.New("tree is closed")

	ErrInvalidArgument       = base.ErrInvalidArgument
	ErrStorageIO             = base.ErrStorageIO
	ErrSerializationMismatch = base.ErrSerializationMismatch
	ErrCapacityInvariant     = base.ErrCapacityInvariant
	ErrCorruption            = base.ErrCorruption
	ErrLocked                = storage.ErrLocked
)

// IOError describes a failed operation against the backing store. It matches
// ErrStorageIO and the underlying cause with errors.Is.
type IOError = base.IOError
