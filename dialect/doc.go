// Package dialect defines the connection contract the crud package talks to
// and the pluggable dialect adapters that render store-specific SQL.
//
// # Connection contract
//
// A connection executes statements written with named "@param"
// placeholders:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, stmt *Statement) (Result, error)
//	    Query(ctx context.Context, stmt *Statement) ([]Row, error)
//	}
//
// The ambient transaction and the timeout travel inside the Statement and
// are handled by the connection. The dialect/sql package implements the
// contract on top of database/sql.
//
// # Adapters
//
// An Adapter quotes identifiers, renders `column = @param` fragments and
// performs inserts that report the generated identity:
//
//	SQL Server  [Name]   INSERT ...; SELECT SCOPE_IDENTITY() id
//	Postgres    "Name"   INSERT ... RETURNING "Id"
//	MySQL       `Name`   INSERT ... + LastInsertId
//	SQLite      "Name"   INSERT ... + LastInsertId
//
// Adapters are selected by Kind. The kind comes from a caller-supplied
// Detector, or else from the Dialect name the connection declares; unknown
// kinds use the SQL Server adapter.
package dialect
