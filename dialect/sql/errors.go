package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Postgres SQLSTATE codes for constraint violations (class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// violation describes how each supported driver reports one kind of
// constraint violation.
type violation struct {
	sqlstate string
	mysql    []uint16
	sqlite   []int
	messages []string
}

var (
	uniqueViolation = violation{
		sqlstate: pgUniqueViolation,
		mysql:    []uint16{mysqlDuplicateEntry},
		sqlite:   []int{sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY},
		messages: []string{
			"Error 1062",                  // MySQL
			"violates unique constraint",  // Postgres
			"UNIQUE constraint failed",    // SQLite
			"Violation of UNIQUE KEY",     // SQL Server
			"Violation of PRIMARY KEY",    // SQL Server
			"Cannot insert duplicate key", // SQL Server
		},
	}
	foreignKeyViolation = violation{
		sqlstate: pgForeignKeyViolation,
		mysql:    []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		sqlite:   []int{sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY},
		messages: []string{
			"Error 1451",                      // MySQL
			"Error 1452",                      // MySQL
			"violates foreign key constraint", // Postgres
			"FOREIGN KEY constraint failed",   // SQLite
			"conflicted with the FOREIGN KEY", // SQL Server
		},
	}
	checkViolation = violation{
		sqlstate: pgCheckViolation,
		mysql:    []uint16{mysqlCheckConstraintViolate},
		sqlite:   []int{sqlite3.SQLITE_CONSTRAINT_CHECK},
		messages: []string{
			"Error 3819",                // MySQL
			"violates check constraint", // Postgres
			"CHECK constraint failed",   // SQLite
			"conflicted with the CHECK", // SQL Server
		},
	}
)

func (v violation) match(err error) bool {
	if err == nil {
		return false
	}
	var (
		pqErr  *pq.Error
		pgErr  *pgconn.PgError
		myErr  *mysql.MySQLError
		litErr *sqlite.Error
	)
	switch {
	case errors.As(err, &pgErr):
		return pgErr.Code == v.sqlstate
	case errors.As(err, &pqErr):
		return string(pqErr.Code) == v.sqlstate
	case errors.As(err, &myErr):
		for _, n := range v.mysql {
			if myErr.Number == n {
				return true
			}
		}
		return false
	case errors.As(err, &litErr):
		for _, c := range v.sqlite {
			if litErr.Code() == c {
				return true
			}
		}
		return false
	}
	msg := err.Error()
	for _, m := range v.messages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness
// constraint violation, e.g. a duplicate value in a unique index.
func IsUniqueConstraintError(err error) bool {
	return uniqueViolation.match(err)
}

// IsForeignKeyConstraintError reports if the error resulted from a database
// foreign-key constraint violation, e.g. the parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return foreignKeyViolation.match(err)
}

// IsCheckConstraintError reports if the error resulted from a database check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	return checkViolation.match(err)
}

// IsConstraintError returns true if the error resulted from a database
// constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}
