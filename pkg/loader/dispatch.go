package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/lib/pq"              // registers the "postgres" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Backend identifies the database engine addressed by a connection string.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// PostgreSQL database/sql driver names.
const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

const (
	sqlitePrefix   = "sqlite:"
	postgresPrefix = "postgres:"
)

// ParseBackend selects the backend from the connection string's scheme prefix.
// It performs no I/O.
func ParseBackend(databaseURL string) (Backend, error) {
	switch {
	case strings.HasPrefix(databaseURL, sqlitePrefix):
		return BackendSQLite, nil
	case strings.HasPrefix(databaseURL, postgresPrefix):
		return BackendPostgres, nil
	default:
		return "", ErrUnsupportedScheme
	}
}

// OpenOptions controls how a pool is opened.
type OpenOptions struct {
	// PostgresDriver is the database/sql driver used for postgres: URLs.
	// DriverPgx when empty.
	PostgresDriver string

	// Logger receives debug events. Discarded when nil.
	Logger *slog.Logger
}

// DB is an open connection pool together with the backend it talks to.
// The caller owns it and must call Close.
type DB struct {
	*sql.DB
	Backend Backend
}

// Open resolves the backend for databaseURL, opens a pool through the
// matching driver and verifies it with a ping.
func Open(ctx context.Context, databaseURL string, opts OpenOptions) (*DB, error) {
	backend, err := ParseBackend(databaseURL)
	if err != nil {
		return nil, err
	}
	return openBackend(ctx, backend, databaseURL, opts)
}

func openBackend(ctx context.Context, backend Backend, databaseURL string, opts OpenOptions) (*DB, error) {
	logger := loggerOrDiscard(opts.Logger)

	var (
		driverName string
		dsn        string
		memory     bool
		err        error
	)
	switch backend {
	case BackendSQLite:
		driverName = "sqlite"
		dsn, memory = sqliteDSN(databaseURL)
	case BackendPostgres:
		driverName, err = postgresDriver(opts.PostgresDriver)
		if err != nil {
			return nil, connectError(databaseURL, err)
		}
		dsn = databaseURL
	default:
		return nil, ErrUnsupportedScheme
	}

	logger.Debug("opening database",
		slog.String("backend", string(backend)),
		slog.String("driver", driverName),
		slog.String("url", Redact(databaseURL)))

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, connectError(databaseURL, err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, connectError(databaseURL, err)
	}

	return &DB{DB: db, Backend: backend}, nil
}

func connectError(databaseURL string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConnect, Redact(databaseURL), err)
}

func postgresDriver(name string) (string, error) {
	switch name {
	case "", DriverPgx:
		return DriverPgx, nil
	case DriverPq:
		return DriverPq, nil
	default:
		return "", fmt.Errorf("unknown postgres driver %q (want %q or %q)", name, DriverPgx, DriverPq)
	}
}

// sqliteDSN translates a sqlite: URL into a modernc.org/sqlite DSN and
// reports whether it addresses an in-memory database.
//
// Accepted forms:
//
//	sqlite::memory:
//	sqlite:data.db
//	sqlite://data.db
//	sqlite:///var/lib/app/data.db
//	sqlite://data.db?mode=ro
func sqliteDSN(databaseURL string) (dsn string, memory bool) {
	rest := strings.TrimPrefix(databaseURL, sqlitePrefix)
	rest = strings.TrimPrefix(rest, "//")

	path, rawQuery, _ := strings.Cut(rest, "?")
	if path == "" {
		path = ":memory:"
	}
	memory = path == ":memory:"
	if rawQuery == "" {
		return path, memory
	}

	if q, err := url.ParseQuery(rawQuery); err == nil && q.Get("mode") == "memory" {
		memory = true
	}
	return "file:" + path + "?" + rawQuery, memory
}
