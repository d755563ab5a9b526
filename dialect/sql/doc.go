// Package sql implements the dialect connection contract over database/sql.
//
// Statements use named "@param" placeholders. Conn rewrites them for the
// dialect of the connection before handing the query to database/sql:
//
//	| Dialect    | Placeholder | Arguments        |
//	|------------|-------------|------------------|
//	| postgres   | $1, $2, ... | positional       |
//	| mysql      | ?           | positional       |
//	| sqlite     | ?           | positional       |
//	| sqlserver  | @name       | sql.Named        |
//
// A statement carrying a transaction runs on that transaction; a statement
// carrying a timeout runs under a context with that deadline.
//
// # Opening a connection
//
//	drv, err := sql.Open("pgx", dsn)
//	if err != nil {
//	    return err
//	}
//	client := crud.NewClient(drv, crud.WithDialectDetector(sql.Detector))
//
// # Statistics
//
// StatsDriver counts statements, errors and slow statements; Collector
// exports the counters to Prometheus. DebugDriver logs every statement
// through log/slog.
//
// # Constraint errors
//
// IsUniqueConstraintError, IsForeignKeyConstraintError and
// IsCheckConstraintError classify errors of the lib/pq, pgx, MySQL and
// SQLite drivers by code, and other drivers by message.
package sql
