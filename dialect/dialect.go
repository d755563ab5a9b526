package dialect

import (
	"context"
	"strings"
	"time"
)

// Dialect names as reported by Driver.Dialect.
const (
	SQLServerName = "sqlserver"
	PostgresName  = "postgres"
	MySQLName     = "mysql"
	SQLiteName    = "sqlite"
)

// Kind enumerates the database kinds an adapter exists for.
type Kind uint8

// Database kinds.
const (
	Unknown Kind = iota
	SQLServer
	Postgres
	MySQL
	SQLite
)

// String returns the dialect name of the kind.
func (k Kind) String() string {
	switch k {
	case SQLServer:
		return SQLServerName
	case Postgres:
		return PostgresName
	case MySQL:
		return MySQLName
	case SQLite:
		return SQLiteName
	default:
		return "unknown"
	}
}

// ParseKind maps a dialect, driver or connection type name to a Kind. Names
// are matched case-insensitively and by prefix, so wrapped driver names such
// as "postgres-otel" resolve to their base dialect. Unrecognised names yield
// Unknown.
func ParseKind(name string) Kind {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range []struct {
		prefix string
		kind   Kind
	}{
		{"sqlserver", SQLServer},
		{"mssql", SQLServer},
		{"postgres", Postgres},
		{"pgx", Postgres},
		{"npgsql", Postgres},
		{"mysql", MySQL},
		{"sqlite", SQLite},
	} {
		if strings.HasPrefix(name, p.prefix) {
			return p.kind
		}
	}
	return Unknown
}

// Args holds named statement parameters, keyed without the "@" prefix.
type Args map[string]any

// Row is a single result row keyed by column name.
type Row map[string]any

// Result summarises an executed statement. It is satisfied by database/sql.Result.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Statement is a statement with named "@param" placeholders together with
// the ambient transaction and timeout the caller supplied. Tx and Timeout
// are passed through unchanged; the connection decides how to honour them.
type Statement struct {
	Query   string
	Args    Args
	Tx      Tx
	Timeout time.Duration
}

// ExecQuerier wraps the two database primitives the crud package uses.
type ExecQuerier interface {
	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, stmt *Statement) (Result, error)
	// Query executes a statement and returns all rows.
	Query(ctx context.Context, stmt *Statement) ([]Row, error)
}

// Driver is a database connection.
type Driver interface {
	ExecQuerier
	// Tx starts a transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx is a transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Detector reports the database kind behind a connection.
type Detector func(ExecQuerier) Kind

// DetectKind returns the kind declared by the connection: its Dialect name
// when it is a Driver, Unknown otherwise.
func DetectKind(conn ExecQuerier) Kind {
	if d, ok := conn.(interface{ Dialect() string }); ok {
		return ParseKind(d.Dialect())
	}
	return Unknown
}
