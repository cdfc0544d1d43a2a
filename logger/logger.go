// Package logger adapts zap and logrus loggers to diskbtree.Logger, and
// builds a zap logger writing JSON to a size-rotated file.
//
// The tree only logs at lifecycle boundaries (create, open, save, close) and
// when a node fails to reach the store, so any of these can stay attached in
// production. Pass one with diskbtree.WithLogger:
//
//	store, err := diskbtree.OpenFileStore("postings.idx")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rl, err := logger.NewRotating(logger.RotateConfig{
//	    LogLevel:    "warn",
//	    FileLogName: "postings.log",
//	    MaxSize:     16,
//	    MaxBackups:  3,
//	})
//	if err != nil {
//	    return err
//	}
//	defer rl.Close()
//
//	// Keys are term ids, values document ids
//	idx, err := diskbtree.New[diskbtree.Uint64, diskbtree.Uint64](store, 32,
//	    diskbtree.Uint64Size, diskbtree.Uint64Size, diskbtree.WithLogger(rl))
//	if err != nil {
//	    return err
//	}
//	defer idx.Close()
//
// For an existing zap or logrus logger use NewZap or NewLogrus instead.
package logger
