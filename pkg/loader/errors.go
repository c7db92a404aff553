package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
)

// Sentinel errors for the stages of a load. Every error returned by this
// package wraps exactly one of them, so callers can tell a missing file from
// an unreachable database with errors.Is.
var (
	// ErrUnsupportedScheme is returned when the connection string does not
	// start with a recognized scheme prefix. No connection is attempted.
	ErrUnsupportedScheme = errors.New("unsupported database URL scheme. Use 'sqlite:' or 'postgres:'")

	// ErrReadFile is returned when the SQL script cannot be read or is not
	// valid UTF-8.
	ErrReadFile = errors.New("failed to read SQL file")

	// ErrConnect is returned when the pool cannot be opened or the database
	// does not answer a ping.
	ErrConnect = errors.New("failed to connect to database")

	// ErrExecute is returned when the backend rejects the script. The driver
	// error is reachable through the chain via *ExecError.
	ErrExecute = errors.New("failed to execute SQL statements")
)

// IsUnsupportedSchemeErr returns true if err is or wraps ErrUnsupportedScheme.
func IsUnsupportedSchemeErr(err error) bool {
	return errors.Is(err, ErrUnsupportedScheme)
}

// IsReadFileErr returns true if err is or wraps ErrReadFile.
func IsReadFileErr(err error) bool {
	return errors.Is(err, ErrReadFile)
}

// IsConnectErr returns true if err is or wraps ErrConnect.
func IsConnectErr(err error) bool {
	return errors.Is(err, ErrConnect)
}

// IsExecuteErr returns true if err is or wraps ErrExecute.
func IsExecuteErr(err error) bool {
	return errors.Is(err, ErrExecute)
}

// ExecError carries the driver error for a failed script along with whatever
// location information the backend reported.
type ExecError struct {
	// Code is the SQLSTATE for PostgreSQL or the numeric result code for SQLite.
	// Empty when the driver did not provide one.
	Code string

	// Line and Column locate the failing position in the script (1-based).
	// Zero when the backend did not report a position.
	Line   int
	Column int

	Err error
}

func (e *ExecError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v (line %d, column %d)", e.Err, e.Line, e.Column)
	}
	return e.Err.Error()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// newExecError inspects a driver error and records its code and position.
// Works with pgx (*pgconn.PgError), lib/pq (*pq.Error) and modernc sqlite
// (*sqlite.Error).
func newExecError(script string, err error) *ExecError {
	e := &ExecError{Err: err}

	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr *sqlite.Error
	switch {
	case errors.As(err, &pgErr):
		e.Code = pgErr.Code
		e.Line, e.Column = lineColumn(script, int(pgErr.Position))
	case errors.As(err, &pqErr):
		e.Code = string(pqErr.Code)
		if pos, convErr := strconv.Atoi(pqErr.Position); convErr == nil {
			e.Line, e.Column = lineColumn(script, pos)
		}
	case errors.As(err, &liteErr):
		e.Code = strconv.Itoa(liteErr.Code())
	default:
		e.Code = sqlState(err)
	}
	return e
}

// lineColumn converts a 1-based character offset, as reported by PostgreSQL,
// into a 1-based line and column. Offsets outside the script yield zeros.
func lineColumn(script string, pos int) (line, column int) {
	if pos <= 0 {
		return 0, 0
	}
	line, column = 1, 1
	n := 0
	for _, r := range script {
		n++
		if n == pos {
			return line, column
		}
		if r == '\n' {
			line++
			column = 1
			continue
		}
		column++
	}
	return 0, 0
}

// sqlState extracts a SQLSTATE from errors that expose one through a method
// rather than a concrete driver type.
func sqlState(err error) string {
	type sqlStateErr interface{ SQLState() string }
	var e sqlStateErr
	if errors.As(err, &e) {
		return e.SQLState()
	}

	// Format: "... (SQLSTATE 42P01)"
	errStr := err.Error()
	if idx := strings.Index(errStr, "SQLSTATE "); idx >= 0 {
		start := idx + len("SQLSTATE ")
		if start+5 <= len(errStr) {
			return errStr[start : start+5]
		}
	}
	return ""
}
