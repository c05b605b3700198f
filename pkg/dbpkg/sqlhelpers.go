// Package dbpkg provides helpers to make db initialization and querying easier.
package dbpkg

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/lib/pq"
)

// Setup sets up connection with database.
func Setup(driver, source string) (*sql.DB, error) {
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// SQLInterface provides neccessary db methods to perform queries.
//
// Both *sql.DB and *sql.Tx satisfy it, so repositories can run inside a transaction.
type SQLInterface interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Postgres error codes a unit of work may be retried on.
const (
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

// CodeNumericOutOfRange is raised when a value does not fit its numeric column.
const CodeNumericOutOfRange = "22003"

// IsRetryable reports whether err is a transient conflict between concurrent transactions.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == CodeSerializationFailure || pqErr.Code == CodeDeadlockDetected
}

// ConstraintName returns the violated constraint name of a postgres error, if any.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}

	return ""
}

// PageOffset returns the OFFSET of the 1-based page pageID.
//
// The product is computed in 64 bits and clamped to [0, MaxInt32], so a huge page id
// reads past the last row instead of wrapping into a negative offset.
func PageOffset(pageID, pageSize int32) int32 {
	offset := (int64(pageID) - 1) * int64(pageSize)

	switch {
	case offset < 0:
		return 0
	case offset > math.MaxInt32:
		return math.MaxInt32
	}

	return int32(offset)
}
