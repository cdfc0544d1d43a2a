package diskbtree

import (
	"github.com/pkg/errors"

	"github.com/alexhholmes/diskbtree/internal/cache"
)

// Options configures tree behavior.
type Options struct {
	cacheSize  int    // Maximum number of decoded nodes kept resident.
	logger     Logger // Receives lifecycle and write-back failure events.
	syncOnSave bool   // Fsync the store at the end of every Save.
}

// DefaultOptions returns the configuration used when no options are given.
//
//goland:noinspection GoUnusedExportedFunction
func DefaultOptions() Options {
	return Options{
		cacheSize:  cache.DefaultSize,
		logger:     DiscardLogger{},
		syncOnSave: true,
	}
}

// Option configures tree options using the functional options pattern.
type Option func(*Options)

// WithCacheSize sets how many decoded nodes stay resident. Every mutation is
// still written back on eviction, so even a size of 1 is correct, only slow.
//
//goland:noinspection GoUnusedExportedFunction
func WithCacheSize(nodes int) Option {
	return func(opts *Options) {
		opts.cacheSize = nodes
	}
}

// WithLogger routes tree events to l. A nil logger discards them.
//
//goland:noinspection GoUnusedExportedFunction
func WithLogger(l Logger) Option {
	return func(opts *Options) {
		if l == nil {
			l = DiscardLogger{}
		}
		opts.logger = l
	}
}

// WithSyncOnSave controls whether Save fsyncs the store after flushing.
// Disabling it trades durability of the last checkpoint for throughput.
//
//goland:noinspection GoUnusedExportedFunction
func WithSyncOnSave(sync bool) Option {
	return func(opts *Options) {
		opts.syncOnSave = sync
	}
}

func buildOptions(options []Option) (Options, error) {
	opts := DefaultOptions()
	for _, opt := range options {
		opt(&opts)
	}
	if opts.cacheSize < 1 {
		return Options{}, errors.Wrapf(ErrInvalidArgument, "cache size %d must be at least 1", opts.cacheSize)
	}
	return opts, nil
}
