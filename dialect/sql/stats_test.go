package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crud/dialect"
)

func TestStatsDriver(t *testing.T) {
	drv, mock := newMock(t, "postgres")
	var slow []string
	stats := NewStatsDriver(drv,
		WithSlowThreshold(-1),
		WithSlowQueryHook(func(_ context.Context, stmt *dialect.Statement, _ time.Duration) {
			slow = append(slow, stmt.Query)
		}),
	)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("DELETE FROM Users").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM Tags").WillReturnError(errors.New("locked"))

	ctx := context.Background()
	_, err := stats.Query(ctx, &dialect.Statement{Query: "SELECT 1"})
	require.NoError(t, err)
	_, err = stats.Exec(ctx, &dialect.Statement{Query: "DELETE FROM Users"})
	require.NoError(t, err)
	_, err = stats.Exec(ctx, &dialect.Statement{Query: "DELETE FROM Tags"})
	require.Error(t, err)

	s := stats.QueryStats().Stats()
	assert.Equal(t, int64(1), s.Statements[KindSelect])
	assert.Equal(t, int64(2), s.Statements[KindDelete])
	assert.Zero(t, s.Statements[KindInsert])
	assert.Equal(t, int64(3), s.Total())
	assert.Equal(t, int64(1), s.Errors[KindDelete])
	assert.Zero(t, s.Errors[KindSelect])
	assert.Equal(t, int64(3), s.Slow)
	assert.Equal(t, int64(1), s.RowsRead)
	assert.Equal(t, int64(3), s.RowsAffected)
	assert.Equal(t, []string{"SELECT 1", "DELETE FROM Users", "DELETE FROM Tags"}, slow)
	assert.Contains(t, s.String(), "select=1 insert=0 update=0 delete=2 other=0 errors=1 slow=3 rows_read=1 rows_affected=3 avg=")

	stats.QueryStats().Reset()
	s = stats.QueryStats().Stats()
	assert.Zero(t, s.Total())
	assert.Zero(t, s.RowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsTx(t *testing.T) {
	drv, mock := newMock(t, "postgres")
	stats := NewStatsDriver(drv, WithSlowThreshold(time.Hour))
	assert.Equal(t, time.Hour, stats.SlowThreshold())
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE Users SET Name = 'x'").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("INSERT INTO Users (Name) VALUES ('y') RETURNING Id").WillReturnRows(sqlmock.NewRows([]string{"Id"}).AddRow(int64(5)))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := stats.Tx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, &dialect.Statement{Query: "UPDATE Users SET Name = 'x'"})
	require.NoError(t, err)
	_, err = tx.Query(ctx, &dialect.Statement{Query: "INSERT INTO Users (Name) VALUES ('y') RETURNING Id"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	s := stats.QueryStats().Stats()
	assert.Equal(t, int64(1), s.Statements[KindUpdate])
	assert.Equal(t, int64(1), s.Statements[KindInsert], "kind follows the statement, not the call")
	assert.Equal(t, int64(2), s.RowsAffected)
	assert.Equal(t, int64(1), s.RowsRead)
	assert.Zero(t, s.Slow)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlowQueryLog(t *testing.T) {
	drv, mock := newMock(t, "postgres")
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	stats := NewStatsDriver(drv, WithSlowThreshold(-1), WithSlowQueryLog(logger))
	mock.ExpectExec("DELETE FROM Users").WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := stats.Exec(context.Background(), &dialect.Statement{Query: "DELETE FROM Users"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), `query="DELETE FROM Users"`)
}

func TestDebugDriver(t *testing.T) {
	drv, mock := newMock(t, "mysql")
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	debug := NewDebugDriver(drv, logger)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM Users WHERE `Id` = ?").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := debug.Tx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, &dialect.Statement{Query: "DELETE FROM Users WHERE `Id` = @Id", Args: dialect.Args{"Id": 1}})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	out := buf.String()
	assert.Contains(t, out, "begin transaction")
	assert.Contains(t, out, "tx exec")
	assert.Contains(t, out, "rollback transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		query string
		want  StatementKind
	}{
		{"SELECT * FROM Users", KindSelect},
		{"  select\n*\nfrom Users", KindSelect},
		{"(SELECT 1) UNION (SELECT 2)", KindSelect},
		{"INSERT INTO Users (Name) VALUES (@Name)", KindInsert},
		{"UPDATE Users SET Name = @Name", KindUpdate},
		{"DELETE FROM Users WHERE Id = @Id", KindDelete},
		{"WITH t AS (SELECT 1) SELECT * FROM t", KindOther},
		{"CREATE TABLE Users (Id INTEGER)", KindOther},
		{"", KindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.query), tt.query)
	}
	assert.Equal(t, "delete", KindDelete.String())
	assert.Equal(t, "other", StatementKind(42).String())
}

func TestCollector(t *testing.T) {
	stats := &QueryStats{}
	for range 4 {
		stats.add(KindSelect, time.Millisecond, nil, false)
	}
	stats.add(KindInsert, time.Millisecond, nil, false)
	stats.add(KindDelete, time.Millisecond, errors.New("locked"), true)
	c := NewCollector(stats, "app")

	assert.Equal(t, 2*len(Kinds)+4, testutil.CollectAndCount(c))
	expected := `
# HELP app_crud_slow_statements_total Number of statements slower than the slow threshold.
# TYPE app_crud_slow_statements_total counter
app_crud_slow_statements_total 1
# HELP app_crud_statement_errors_total Number of statements that returned an error, by kind.
# TYPE app_crud_statement_errors_total counter
app_crud_statement_errors_total{kind="delete"} 1
app_crud_statement_errors_total{kind="insert"} 0
app_crud_statement_errors_total{kind="other"} 0
app_crud_statement_errors_total{kind="select"} 0
app_crud_statement_errors_total{kind="update"} 0
# HELP app_crud_statements_total Number of statements executed, by kind.
# TYPE app_crud_statements_total counter
app_crud_statements_total{kind="delete"} 1
app_crud_statements_total{kind="insert"} 1
app_crud_statements_total{kind="other"} 0
app_crud_statements_total{kind="select"} 4
app_crud_statements_total{kind="update"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"app_crud_statements_total", "app_crud_statement_errors_total", "app_crud_slow_statements_total"))
}
