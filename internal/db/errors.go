package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorClass groups backend failures by how callers should react to them.
type ErrorClass int

const (
	// ClassFatal covers every failure that is neither a conflict nor transient.
	ClassFatal ErrorClass = iota
	// ClassConflict is a write rejected by a uniqueness constraint.
	ClassConflict
	// ClassTransient is a failure that may succeed on a later attempt
	// (timeouts, dropped connections, serialization failures).
	ClassTransient
)

func (c ErrorClass) String() string {
	switch c {
	case ClassConflict:
		return "conflict"
	case ClassTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// CodeUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const CodeUniqueViolation = "23505"

// PersistenceError wraps a datastore failure with its classification and,
// when the backend reports one, its native error code.
type PersistenceError struct {
	Op    string
	Table string
	Code  string
	Class ErrorClass
	Cause error
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("db: %s %s: %s (code %s): %v", e.Op, e.Table, e.Class, e.Code, e.Cause)
	}
	return fmt.Sprintf("db: %s %s: %s: %v", e.Op, e.Table, e.Class, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Class == ClassConflict
	}
	class, _ := Classify(err)
	return class == ClassConflict
}

// Classify maps a raw driver or GORM error to an ErrorClass and a backend code.
func Classify(err error) (ErrorClass, string) {
	if err == nil {
		return ClassFatal, ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code), pgErr.Code
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ClassConflict, CodeUniqueViolation
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn):
		return ClassTransient, ""
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return ClassTransient, ""
	}

	return ClassFatal, ""
}

func classifySQLState(code string) ErrorClass {
	switch {
	case code == CodeUniqueViolation:
		return ClassConflict
	case strings.HasPrefix(code, "08"), // connection exception
		code == "40001", // serialization_failure
		code == "40P01", // deadlock_detected
		code == "57P01", // admin_shutdown
		code == "57014": // query_canceled
		return ClassTransient
	default:
		return ClassFatal
	}
}

// wrap classifies err and attaches the operation and table. nil stays nil.
func wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	class, code := Classify(err)
	return &PersistenceError{Op: op, Table: table, Code: code, Class: class, Cause: err}
}
