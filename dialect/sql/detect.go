package sql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/syssam/crud/dialect"
)

// DetectKind reports the database kind of db from its registered driver.
// Drivers outside the known set are matched by their type name, so a
// *mssql.Driver resolves to dialect.SQLServer.
func DetectKind(db *sql.DB) dialect.Kind {
	switch drv := db.Driver().(type) {
	case *pq.Driver, *stdlib.Driver:
		return dialect.Postgres
	case *mysql.MySQLDriver, mysql.MySQLDriver:
		return dialect.MySQL
	case *sqlite.Driver:
		return dialect.SQLite
	default:
		name := strings.TrimLeft(fmt.Sprintf("%T", drv), "*")
		return dialect.ParseKind(name)
	}
}

// Detector is a dialect.Detector for connections opened by this package.
// It prefers the registered driver type over the dialect name given at
// open time.
func Detector(conn dialect.ExecQuerier) dialect.Kind {
	var db *sql.DB
	switch c := conn.(type) {
	case *Driver:
		db, _ = c.ExecQuerier.(*sql.DB)
	case *StatsDriver:
		return Detector(c.Driver)
	case *DebugDriver:
		return Detector(c.Driver)
	}
	if db != nil {
		if k := DetectKind(db); k != dialect.Unknown {
			return k
		}
	}
	return dialect.DetectKind(conn)
}
