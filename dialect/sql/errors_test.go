package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name                      string
		err                       error
		unique, foreignKey, check bool
	}{
		{"Nil", nil, false, false, false},
		{"Other", errors.New("connection refused"), false, false, false},
		{"PqUnique", &pq.Error{Code: "23505"}, true, false, false},
		{"PqForeignKey", &pq.Error{Code: "23503"}, false, true, false},
		{"PgxCheck", &pgconn.PgError{Code: "23514"}, false, false, true},
		{"PgxWrapped", fmt.Errorf("dialect/sql: exec: %w", &pgconn.PgError{Code: "23505"}), true, false, false},
		{"MySQLDuplicate", &mysql.MySQLError{Number: 1062}, true, false, false},
		{"MySQLParent", &mysql.MySQLError{Number: 1451}, false, true, false},
		{"MySQLChild", &mysql.MySQLError{Number: 1452}, false, true, false},
		{"MySQLCheck", &mysql.MySQLError{Number: 3819}, false, false, true},
		{"SQLiteMessage", errors.New("UNIQUE constraint failed: Users.Email"), true, false, false},
		{"SQLServerMessage", errors.New("mssql: The INSERT statement conflicted with the FOREIGN KEY constraint"), false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.foreignKey, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.foreignKey || tt.check, IsConstraintError(tt.err))
		})
	}
}
