package db

import "errors"

// Sentinel errors for storage operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
)

// Op names used for error context.
const (
	OpGet     = "GET"
	OpSet     = "SET"
	OpPing    = "PING"
	OpSearch  = "SEARCH"
	OpMsearch = "MSEARCH"
	OpDocGet  = "DOC_GET"
	OpQuery   = "QUERY"
	OpExec    = "EXEC"
	OpConnect = "CONNECT"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
