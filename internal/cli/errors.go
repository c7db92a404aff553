// Package cli provides shared configuration and utilities for the sql-loader CLI.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/obstreperous-ai/sql-loader/pkg/loader"
)

// Exit codes. Any failure is non-zero; the value tells scripts which stage failed.
const (
	ExitSuccess   = 0
	ExitGeneral   = 1
	ExitConfig    = 2
	ExitReadFile  = 3
	ExitDBConnect = 4
	ExitExecute   = 5
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// PrintError writes the full error chain to w and returns the exit code for it.
func PrintError(w io.Writer, err error) int {
	_, _ = fmt.Fprintln(w, "Error:", err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneral
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// ReadFileError creates an ExitError with ExitReadFile code.
func ReadFileError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitReadFile, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// ExecuteError creates an ExitError with ExitExecute code.
func ExecuteError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitExecute, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}

// Classify wraps a loader error in the ExitError matching its stage.
func Classify(msg string, err error) *ExitError {
	switch {
	case loader.IsReadFileErr(err):
		return ReadFileError(msg, err)
	case loader.IsUnsupportedSchemeErr(err), loader.IsConnectErr(err):
		return DBConnectError(msg, err)
	case loader.IsExecuteErr(err):
		return ExecuteError(msg, err)
	default:
		return GeneralError(msg, err)
	}
}
