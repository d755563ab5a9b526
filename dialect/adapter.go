package dialect

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/syssam/crud/schema"
)

// KeySetter receives the identity generated by an insert.
type KeySetter interface {
	SetFieldValue(name string, value any) error
}

// InsertRequest carries one single-row insert to an adapter.
type InsertRequest struct {
	// Table is the resolved table name.
	Table string
	// Columns is the rendered column list, e.g. `"Name", "Email"`.
	Columns string
	// Params is the rendered parameter list, e.g. "@Name, @Email".
	Params string
	Args   Args
	// Keys lists the identity keys of the entity type. The first key receives
	// the generated identity.
	Keys []string
	// Entity receives the generated identity. It may be nil.
	Entity  KeySetter
	Tx      Tx
	Timeout time.Duration
}

func (r *InsertRequest) statement(query string) *Statement {
	return &Statement{Query: query, Args: r.Args, Tx: r.Tx, Timeout: r.Timeout}
}

func (r *InsertRequest) insertSQL() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", r.Table, r.Columns, r.Params)
}

// setKey stores the generated identity into the first key and returns it as int64.
func (r *InsertRequest) setKey(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	if r.Entity != nil && len(r.Keys) > 0 {
		if err := r.Entity.SetFieldValue(r.Keys[0], v); err != nil {
			return 0, err
		}
	}
	id, err := schema.Convert[int64](v)
	if err != nil {
		// Non-numeric identities (uuid, text) are stored on the entity only.
		return 0, nil
	}
	return id, nil
}

// Adapter renders dialect-specific SQL fragments and performs inserts that
// report the generated identity.
type Adapter interface {
	// Kind returns the database kind the adapter serves.
	Kind() Kind
	// QuoteIdentifier quotes a column name.
	QuoteIdentifier(name string) string
	// AppendColumnEqualsParam appends `<quoted name> = @<name>` to b.
	AppendColumnEqualsParam(b *strings.Builder, name string)
	// Insert executes a single-row insert and returns the generated
	// identity, or 0 when the entity type has no identity key.
	Insert(ctx context.Context, conn ExecQuerier, req *InsertRequest) (int64, error)
}

// quoter implements the rendering half of Adapter for a pair of quote characters.
type quoter struct {
	lq, rq string
}

func (q quoter) QuoteIdentifier(name string) string {
	return q.lq + strings.ReplaceAll(name, q.rq, q.rq+q.rq) + q.rq
}

func (q quoter) AppendColumnEqualsParam(b *strings.Builder, name string) {
	b.WriteString(q.QuoteIdentifier(name))
	b.WriteString(" = @")
	b.WriteString(name)
}

// SQLServerAdapter is the default adapter. It reads the identity with
// SCOPE_IDENTITY in the same batch as the insert.
type SQLServerAdapter struct{ quoter }

// Kind implements Adapter.
func (SQLServerAdapter) Kind() Kind { return SQLServer }

// Insert implements Adapter.
func (SQLServerAdapter) Insert(ctx context.Context, conn ExecQuerier, req *InsertRequest) (int64, error) {
	if len(req.Keys) == 0 {
		_, err := conn.Exec(ctx, req.statement(req.insertSQL()))
		return 0, err
	}
	rows, err := conn.Query(ctx, req.statement(req.insertSQL()+"; SELECT SCOPE_IDENTITY() id"))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return req.setKey(rows[0]["id"])
}

// PostgresAdapter returns generated keys with INSERT ... RETURNING.
type PostgresAdapter struct{ quoter }

// Kind implements Adapter.
func (PostgresAdapter) Kind() Kind { return Postgres }

// Insert implements Adapter.
func (a PostgresAdapter) Insert(ctx context.Context, conn ExecQuerier, req *InsertRequest) (int64, error) {
	if len(req.Keys) == 0 {
		_, err := conn.Exec(ctx, req.statement(req.insertSQL()))
		return 0, err
	}
	keys := make([]string, len(req.Keys))
	for i, k := range req.Keys {
		keys[i] = a.QuoteIdentifier(k)
	}
	rows, err := conn.Query(ctx, req.statement(req.insertSQL()+" RETURNING "+strings.Join(keys, ", ")))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	row := rows[0]
	if req.Entity != nil {
		for _, k := range req.Keys[1:] {
			if v, ok := row[k]; ok {
				if err := req.Entity.SetFieldValue(k, v); err != nil {
					return 0, err
				}
			}
		}
	}
	return req.setKey(row[req.Keys[0]])
}

// lastInsertIDAdapter reads the identity from the driver result. It serves
// MySQL and SQLite, whose drivers report LAST_INSERT_ID / last_insert_rowid
// on the connection that ran the insert.
type lastInsertIDAdapter struct {
	quoter
	kind Kind
}

func (a lastInsertIDAdapter) Kind() Kind { return a.kind }

func (a lastInsertIDAdapter) Insert(ctx context.Context, conn ExecQuerier, req *InsertRequest) (int64, error) {
	res, err := conn.Exec(ctx, req.statement(req.insertSQL()))
	if err != nil {
		return 0, err
	}
	if len(req.Keys) == 0 {
		return 0, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return req.setKey(id)
}

// MySQLAdapter quotes with backticks.
type MySQLAdapter struct{ lastInsertIDAdapter }

// SQLiteAdapter quotes with double quotes.
type SQLiteAdapter struct{ lastInsertIDAdapter }

// NewSQLServerAdapter returns the SQL Server adapter.
func NewSQLServerAdapter() Adapter { return SQLServerAdapter{quoter{"[", "]"}} }

// NewPostgresAdapter returns the Postgres adapter.
func NewPostgresAdapter() Adapter { return PostgresAdapter{quoter{`"`, `"`}} }

// NewMySQLAdapter returns the MySQL adapter.
func NewMySQLAdapter() Adapter {
	return MySQLAdapter{lastInsertIDAdapter{quoter{"`", "`"}, MySQL}}
}

// NewSQLiteAdapter returns the SQLite adapter.
func NewSQLiteAdapter() Adapter {
	return SQLiteAdapter{lastInsertIDAdapter{quoter{`"`, `"`}, SQLite}}
}

var (
	adaptersMu sync.RWMutex
	adapters   = map[Kind]Adapter{
		SQLServer: NewSQLServerAdapter(),
		Postgres:  NewPostgresAdapter(),
		MySQL:     NewMySQLAdapter(),
		SQLite:    NewSQLiteAdapter(),
	}
)

// DefaultAdapter is used for connections of Unknown kind.
func DefaultAdapter() Adapter { return NewSQLServerAdapter() }

// Register installs a for kind, replacing the built-in adapter.
func Register(kind Kind, a Adapter) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	adapters[kind] = a
}

// AdapterFor returns the adapter registered for kind, or the default
// adapter when none is.
func AdapterFor(kind Kind) Adapter {
	adaptersMu.RLock()
	a, ok := adapters[kind]
	adaptersMu.RUnlock()
	if !ok {
		return DefaultAdapter()
	}
	return a
}

// Select picks the adapter for conn. A non-nil detector takes precedence
// over the kind the connection declares.
func Select(conn ExecQuerier, detect Detector) Adapter {
	if detect != nil {
		return AdapterFor(detect(conn))
	}
	return AdapterFor(DetectKind(conn))
}
