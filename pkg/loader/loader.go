// Package loader executes SQL scripts against SQLite or PostgreSQL databases.
//
// The backend is chosen from the connection string's scheme prefix:
//
//	sqlite:   modernc.org/sqlite (pure Go)
//	postgres: pgx (default) or lib/pq
//
// The script is handed to the driver verbatim as one multi-statement
// execution. Nothing is parsed, split or validated on the client side.
//
// Example:
//
//	if err := loader.LoadFile(ctx, "sqlite::memory:", "seed.sql", loader.Options{}); err != nil {
//	    log.Fatalf("loading seed data: %v", err)
//	}
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"
)

// Options controls a single load.
type Options struct {
	// Transaction wraps the whole script in one transaction. When false the
	// backend's autocommit behavior decides what survives a failure.
	Transaction bool

	// PostgresDriver is the database/sql driver used for postgres: URLs,
	// DriverPgx or DriverPq. DriverPgx when empty.
	PostgresDriver string

	// Logger receives debug events. Discarded when nil.
	Logger *slog.Logger
}

// ReadScript reads a SQL script from disk. The content must be valid UTF-8.
func ReadScript(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrReadFile, path, err)
	}
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: %s: content is not valid UTF-8", ErrReadFile, path)
	}
	return string(content), nil
}

// LoadFile reads the script at path and executes it against databaseURL.
//
// The scheme is checked before the file is touched, and the file is read
// before any connection is attempted, so the three failure classes
// (ErrUnsupportedScheme, ErrReadFile, ErrConnect) never mask each other.
// The pool is closed before LoadFile returns.
func LoadFile(ctx context.Context, databaseURL, path string, opts Options) error {
	backend, err := ParseBackend(databaseURL)
	if err != nil {
		return err
	}

	script, err := ReadScript(path)
	if err != nil {
		return err
	}
	loggerOrDiscard(opts.Logger).Debug("read SQL file",
		slog.String("path", path),
		slog.Int("bytes", len(script)))

	return load(ctx, backend, databaseURL, script, opts)
}

// LoadSQL executes an in-memory script against databaseURL. Useful for
// scripts embedded in the binary.
func LoadSQL(ctx context.Context, databaseURL, script string, opts Options) error {
	backend, err := ParseBackend(databaseURL)
	if err != nil {
		return err
	}
	return load(ctx, backend, databaseURL, script, opts)
}

func load(ctx context.Context, backend Backend, databaseURL, script string, opts Options) error {
	logger := loggerOrDiscard(opts.Logger)

	db, err := openBackend(ctx, backend, databaseURL, OpenOptions{
		PostgresDriver: opts.PostgresDriver,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	start := time.Now()
	if opts.Transaction {
		err = ExecInTx(ctx, db, script)
	} else {
		err = Exec(ctx, db, script)
	}
	if err != nil {
		return err
	}

	logger.Debug("executed SQL script",
		slog.String("backend", string(backend)),
		slog.Bool("transaction", opts.Transaction),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
