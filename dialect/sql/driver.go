package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/syssam/crud/dialect"
)

// Driver is a dialect.Driver implementation for database/sql.
type Driver struct {
	Conn
	dialect string
}

// NewDriver creates a new Driver with the given Conn and dialect name.
func NewDriver(dialect string, c Conn) *Driver {
	return &Driver{dialect: dialect, Conn: c}
}

// Open wraps database/sql.Open and returns a dialect.Driver.
//
//	drv, err := sql.Open("pgx", "postgres://localhost/app")
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(driverName, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver. An empty dialect
// name is detected from the registered database/sql driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	if dialect == "" {
		dialect = DetectKind(db).String()
	}
	return NewDriver(dialect, NewConn(dialect, db))
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect implements the dialect.Driver method. Driver names such as "pgx"
// or wrapped names such as "postgres-otel" report their base dialect.
func (d Driver) Dialect() string {
	if k := dialect.ParseKind(d.dialect); k != dialect.Unknown {
		return k.String()
	}
	return d.dialect
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: NewConn(d.dialect, tx),
		Tx:   tx,
	}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx interface.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier wraps the standard Exec and Query methods of *sql.DB, *sql.Tx
// and *sql.Conn.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier. It rewrites the
// named "@param" placeholders of a statement into the placeholder style of
// its dialect before execution.
type Conn struct {
	ExecQuerier
	kind dialect.Kind
}

// NewConn returns a Conn binding parameters for the named dialect.
func NewConn(dialectName string, ex ExecQuerier) Conn {
	return Conn{ExecQuerier: ex, kind: dialect.ParseKind(dialectName)}
}

// Exec implements the dialect.Exec method. A statement carrying a
// transaction is executed on that transaction instead.
func (c Conn) Exec(ctx context.Context, stmt *dialect.Statement) (dialect.Result, error) {
	if tx := stmt.Tx; tx != nil && !c.owns(tx) {
		return tx.Exec(ctx, detach(stmt))
	}
	query, argv, err := Bind(c.kind, stmt.Query, stmt.Args)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	ctx, cancel := withTimeout(ctx, stmt.Timeout)
	defer cancel()
	res, err := c.ExecContext(ctx, query, argv...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	return res, nil
}

// Query implements the dialect.Query method. All rows are read before it
// returns; byte slices are copied out of the driver buffers.
func (c Conn) Query(ctx context.Context, stmt *dialect.Statement) ([]dialect.Row, error) {
	if tx := stmt.Tx; tx != nil && !c.owns(tx) {
		return tx.Query(ctx, detach(stmt))
	}
	query, argv, err := Bind(c.kind, stmt.Query, stmt.Args)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	ctx, cancel := withTimeout(ctx, stmt.Timeout)
	defer cancel()
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	out, err := ScanRows(Rows{rows})
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	return out, nil
}

// owns reports whether tx runs on the connection itself.
func (c Conn) owns(tx dialect.Tx) bool {
	t, ok := tx.(*Tx)
	return ok && t.ExecQuerier == c.ExecQuerier
}

func detach(stmt *dialect.Statement) *dialect.Statement {
	s := *stmt
	s.Tx = nil
	return &s
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// ScanRows reads every row of rows into column-keyed maps and closes rows.
func ScanRows(rows ColumnScanner) (_ []dialect.Row, rerr error) {
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []dialect.Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(dialect.Row, len(columns))
		for i, name := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			row[name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Bind rewrites the "@name" placeholders of query for the given kind and
// returns the positional or named driver arguments. Placeholders inside
// quoted literals and identifiers, and "@@" system variables, are left
// untouched. Postgres receives $n placeholders, MySQL and SQLite receive ?,
// and SQL Server (and unknown kinds) keep @name bound with sql.Named.
func Bind(kind dialect.Kind, query string, args dialect.Args) (string, []any, error) {
	if !strings.Contains(query, "@") {
		return query, nil, nil
	}
	var (
		b     strings.Builder
		argv  []any
		index map[string]int
	)
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			end := closing(query, i, ch)
			b.WriteString(query[i:end])
			i = end - 1
		case ch == '@' && i+1 < len(query) && query[i+1] == '@':
			j := i + 2
			for j < len(query) && isIdent(query[j]) {
				j++
			}
			b.WriteString(query[i:j])
			i = j - 1
		case ch == '@' && i+1 < len(query) && isIdentStart(query[i+1]):
			j := i + 1
			for j < len(query) && isIdent(query[j]) {
				j++
			}
			name := query[i+1 : j]
			v, ok := args[name]
			if !ok {
				return "", nil, fmt.Errorf("missing argument %q", name)
			}
			switch kind {
			case dialect.Postgres:
				if index == nil {
					index = make(map[string]int)
				}
				n, seen := index[name]
				if !seen {
					argv = append(argv, v)
					n = len(argv)
					index[name] = n
				}
				fmt.Fprintf(&b, "$%d", n)
			case dialect.MySQL, dialect.SQLite:
				argv = append(argv, v)
				b.WriteByte('?')
			default:
				if index == nil {
					index = make(map[string]int)
				}
				if _, seen := index[name]; !seen {
					argv = append(argv, sql.Named(name, v))
					index[name] = len(argv)
				}
				b.WriteString(query[i:j])
			}
			i = j - 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), argv, nil
}

// closing returns the index just past the literal opened by q at start.
// A doubled quote character inside the literal is an escaped quote.
func closing(s string, start int, q byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isIdentStart(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isIdent(c byte) bool {
	return isIdentStart(c) || '0' <= c && c <= '9'
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}
