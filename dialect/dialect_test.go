package dialect_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crud/dialect"
)

type result struct {
	id, affected int64
	idErr        error
}

func (r result) LastInsertId() (int64, error) { return r.id, r.idErr }
func (r result) RowsAffected() (int64, error) { return r.affected, nil }

// conn records statements and replays canned results.
type conn struct {
	name  string
	execs []*dialect.Statement
	query []*dialect.Statement
	res   dialect.Result
	rows  []dialect.Row
	err   error
}

func (c *conn) Exec(_ context.Context, stmt *dialect.Statement) (dialect.Result, error) {
	c.execs = append(c.execs, stmt)
	return c.res, c.err
}

func (c *conn) Query(_ context.Context, stmt *dialect.Statement) ([]dialect.Row, error) {
	c.query = append(c.query, stmt)
	return c.rows, c.err
}

func (c *conn) Dialect() string { return c.name }

type keys map[string]any

func (k keys) SetFieldValue(name string, v any) error {
	k[name] = v
	return nil
}

func TestParseKind(t *testing.T) {
	tests := map[string]dialect.Kind{
		"postgres":         dialect.Postgres,
		"pgx":              dialect.Postgres,
		"NpgsqlConnection": dialect.Postgres,
		"mysql":            dialect.MySQL,
		"sqlite":           dialect.SQLite,
		"sqlite3":          dialect.SQLite,
		"sqlserver":        dialect.SQLServer,
		"mssql":            dialect.SQLServer,
		"oracle":           dialect.Unknown,
		"":                 dialect.Unknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, dialect.ParseKind(name), name)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "postgres", dialect.Postgres.String())
	assert.Equal(t, "mysql", dialect.MySQL.String())
	assert.Equal(t, "sqlite", dialect.SQLite.String())
	assert.Equal(t, "sqlserver", dialect.SQLServer.String())
	assert.Equal(t, "unknown", dialect.Unknown.String())
}

func TestQuoting(t *testing.T) {
	tests := []struct {
		adapter dialect.Adapter
		quoted  string
		eq      string
	}{
		{dialect.NewSQLServerAdapter(), "[Name]", "[Name] = @Name"},
		{dialect.NewPostgresAdapter(), `"Name"`, `"Name" = @Name`},
		{dialect.NewMySQLAdapter(), "`Name`", "`Name` = @Name"},
		{dialect.NewSQLiteAdapter(), `"Name"`, `"Name" = @Name`},
	}
	for _, tt := range tests {
		t.Run(tt.adapter.Kind().String(), func(t *testing.T) {
			assert.Equal(t, tt.quoted, tt.adapter.QuoteIdentifier("Name"))
			var b strings.Builder
			tt.adapter.AppendColumnEqualsParam(&b, "Name")
			assert.Equal(t, tt.eq, b.String())
		})
	}
	assert.Equal(t, `"a""b"`, dialect.NewPostgresAdapter().QuoteIdentifier(`a"b`))
	assert.Equal(t, "[a]]b]", dialect.NewSQLServerAdapter().QuoteIdentifier("a]b"))
}

func TestSelect(t *testing.T) {
	assert.Equal(t, dialect.Postgres, dialect.Select(&conn{name: "postgres"}, nil).Kind())
	assert.Equal(t, dialect.SQLServer, dialect.Select(&conn{name: "firebird"}, nil).Kind(), "unknown kinds use the default adapter")
	detect := func(dialect.ExecQuerier) dialect.Kind { return dialect.MySQL }
	assert.Equal(t, dialect.MySQL, dialect.Select(&conn{name: "postgres"}, detect).Kind(), "detector wins")
	assert.Equal(t, dialect.SQLServer, dialect.DefaultAdapter().Kind())
}

type customAdapter struct{ dialect.Adapter }

func TestRegister(t *testing.T) {
	orig := dialect.AdapterFor(dialect.SQLite)
	t.Cleanup(func() { dialect.Register(dialect.SQLite, orig) })

	custom := customAdapter{dialect.NewSQLiteAdapter()}
	dialect.Register(dialect.SQLite, custom)
	assert.Equal(t, custom, dialect.AdapterFor(dialect.SQLite))
}

func request(ks ...string) (*dialect.InsertRequest, keys) {
	k := keys{}
	return &dialect.InsertRequest{
		Table:   "Users",
		Columns: "Name",
		Params:  "@Name",
		Args:    dialect.Args{"Name": "alice"},
		Keys:    ks,
		Entity:  k,
	}, k
}

func TestSQLServerInsert(t *testing.T) {
	c := &conn{rows: []dialect.Row{{"id": float64(12)}}}
	req, k := request("Id")
	id, err := dialect.NewSQLServerAdapter().Insert(context.Background(), c, req)
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.Equal(t, float64(12), k["Id"])
	require.Len(t, c.query, 1)
	assert.Equal(t, "INSERT INTO Users (Name) VALUES (@Name); SELECT SCOPE_IDENTITY() id", c.query[0].Query)
	assert.Equal(t, dialect.Args{"Name": "alice"}, c.query[0].Args)
}

func TestPostgresInsert(t *testing.T) {
	c := &conn{rows: []dialect.Row{{"Id": int64(7), "Code": "x"}}}
	req, k := request("Id", "Code")
	id, err := dialect.NewPostgresAdapter().Insert(context.Background(), c, req)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int64(7), k["Id"])
	assert.Equal(t, "x", k["Code"])
	require.Len(t, c.query, 1)
	assert.Equal(t, `INSERT INTO Users (Name) VALUES (@Name) RETURNING "Id", "Code"`, c.query[0].Query)
}

func TestLastInsertIDInsert(t *testing.T) {
	for _, a := range []dialect.Adapter{dialect.NewMySQLAdapter(), dialect.NewSQLiteAdapter()} {
		t.Run(a.Kind().String(), func(t *testing.T) {
			c := &conn{res: result{id: 3, affected: 1}}
			req, k := request("Id")
			id, err := a.Insert(context.Background(), c, req)
			require.NoError(t, err)
			assert.Equal(t, int64(3), id)
			assert.Equal(t, int64(3), k["Id"])
			require.Len(t, c.execs, 1)
			assert.Equal(t, "INSERT INTO Users (Name) VALUES (@Name)", c.execs[0].Query)

			c = &conn{res: result{idErr: errors.New("unsupported")}}
			req, _ = request("Id")
			_, err = a.Insert(context.Background(), c, req)
			assert.EqualError(t, err, "unsupported")
		})
	}
}

func TestInsertWithoutKeys(t *testing.T) {
	adapters := []dialect.Adapter{
		dialect.NewSQLServerAdapter(),
		dialect.NewPostgresAdapter(),
		dialect.NewMySQLAdapter(),
		dialect.NewSQLiteAdapter(),
	}
	for _, a := range adapters {
		t.Run(a.Kind().String(), func(t *testing.T) {
			c := &conn{res: result{id: 99, affected: 1}}
			req, k := request()
			id, err := a.Insert(context.Background(), c, req)
			require.NoError(t, err)
			assert.Zero(t, id)
			assert.Empty(t, k)
			assert.Len(t, c.execs, 1)
			assert.Empty(t, c.query)
		})
	}
}

func TestInsertStoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	c := &conn{err: storeErr}
	req, _ := request("Id")
	_, err := dialect.NewPostgresAdapter().Insert(context.Background(), c, req)
	assert.Same(t, storeErr, err)
}
