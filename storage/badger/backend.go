package badger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Backend owns the BadgerDB handle behind a SnapshotRepository.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogAdapter routes badger's printf-style logging onto slog.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Errorf(msg string, items ...any) {
	a.logger.Error(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (a *slogAdapter) Warningf(msg string, items ...any) {
	a.logger.Warn(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

// Infof logs at debug level; badger is chatty about compactions.
func (a *slogAdapter) Infof(msg string, items ...any) {
	a.logger.Debug(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (a *slogAdapter) Debugf(msg string, items ...any) {
	a.logger.Debug(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

// BackendOption configures OpenBackend.
type BackendOption func(*Backend)

// WithBackendLogger sets the logger badger and the snapshot repository use.
// Default is slog.Default().
func WithBackendLogger(logger *slog.Logger) BackendOption {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger.With("component", "badger")
		}
	}
}

// OpenBackend opens the snapshot database at filePath, creating the
// directory if needed. With inMemory set the path is ignored and nothing
// touches the disk.
func OpenBackend(filePath string, inMemory bool, opts ...BackendOption) (*Backend, error) {
	b := &Backend{
		logger: slog.Default().With("component", "badger"),
	}
	for _, opt := range opts {
		opt(b)
	}

	var badgerOpts badger.Options
	if inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(filePath); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(filePath)
	}
	badgerOpts.Logger = &slogAdapter{logger: b.logger}
	// Vectors compress poorly.
	badgerOpts.Compression = options.None

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("error opening snapshot database: %w", err)
	}
	b.db = db
	return b, nil
}

func ensureDir(path string) error {
	if path == "" {
		return fmt.Errorf("database path is required")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// WriteBatch streams key/value pairs through a badger WriteBatch.
// Unlike a transaction it has no size limit, but it is not atomic; callers
// publish the written keys separately once the batch has been flushed.
func (b *Backend) WriteBatch(fn func(wb *badger.WriteBatch) error) error {
	wb := b.db.NewWriteBatch()
	if err := fn(wb); err != nil {
		wb.Cancel()
		return err
	}
	return wb.Flush()
}

// DropPrefix deletes every key starting with prefix.
func (b *Backend) DropPrefix(prefix []byte) error {
	return b.db.DropPrefix(prefix)
}
