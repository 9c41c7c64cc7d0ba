package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		class ErrorClass
		code  string
	}{
		{"pg unique", &pgconn.PgError{Code: "23505"}, ClassConflict, "23505"},
		{"pg unique wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ClassConflict, "23505"},
		{"pg connection", &pgconn.PgError{Code: "08006"}, ClassTransient, "08006"},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, ClassTransient, "40P01"},
		{"pg not null", &pgconn.PgError{Code: "23502"}, ClassFatal, "23502"},
		{"gorm duplicated", gorm.ErrDuplicatedKey, ClassConflict, CodeUniqueViolation},
		{"deadline", context.DeadlineExceeded, ClassTransient, ""},
		{"other", errors.New("boom"), ClassFatal, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			class, code := Classify(c.err)
			if class != c.class {
				t.Errorf("class = %v, want %v", class, c.class)
			}
			if code != c.code {
				t.Errorf("code = %q, want %q", code, c.code)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if wrap("insert", "waitlist", nil) != nil {
		t.Fatal("wrap(nil) must be nil")
	}

	err := wrap("insert", "waitlist", gorm.ErrDuplicatedKey)
	if !IsConflict(err) {
		t.Fatalf("IsConflict = false for %v", err)
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Error("wrapped error must unwrap to its cause")
	}

	again := wrap("select", "other", err)
	if again != err {
		t.Error("wrap must not double-wrap a PersistenceError")
	}
}

func TestErrorClassString(t *testing.T) {
	if ClassConflict.String() != "conflict" || ClassTransient.String() != "transient" || ClassFatal.String() != "fatal" {
		t.Fatal("unexpected ErrorClass names")
	}
}
