package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/syssam/crud/dialect"
)

// StatementKind classifies a statement by its leading keyword.
type StatementKind uint8

// Statement kinds counted by QueryStats.
const (
	KindOther StatementKind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	numKinds
)

// Kinds lists the statement kinds in counter order.
var Kinds = []StatementKind{KindSelect, KindInsert, KindUpdate, KindDelete, KindOther}

// String returns the lower-case keyword of the kind.
func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "other"
	}
}

// KindOf returns the kind of query. Leading whitespace and parentheses are
// skipped; a WITH prefix or any other keyword yields KindOther.
func KindOf(query string) StatementKind {
	query = strings.TrimLeft(query, " \t\r\n(")
	word := query
	if i := strings.IndexFunc(query, func(r rune) bool { return !unicode.IsLetter(r) }); i >= 0 {
		word = query[:i]
	}
	switch {
	case strings.EqualFold(word, "select"):
		return KindSelect
	case strings.EqualFold(word, "insert"):
		return KindInsert
	case strings.EqualFold(word, "update"):
		return KindUpdate
	case strings.EqualFold(word, "delete"):
		return KindDelete
	default:
		return KindOther
	}
}

// QueryStats counts the statements of a driver by kind, together with the
// rows they read or changed. It is safe for concurrent use.
type QueryStats struct {
	statements [numKinds]atomic.Int64
	errors     [numKinds]atomic.Int64
	slow       atomic.Int64
	elapsed    atomic.Int64 // nanoseconds
	rowsRead   atomic.Int64
	affected   atomic.Int64
}

func (s *QueryStats) add(k StatementKind, elapsed time.Duration, err error, slow bool) {
	s.statements[k].Add(1)
	s.elapsed.Add(int64(elapsed))
	if err != nil {
		s.errors[k].Add(1)
	}
	if slow {
		s.slow.Add(1)
	}
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	snap := StatsSnapshot{
		Statements:   make(map[StatementKind]int64, numKinds),
		Errors:       make(map[StatementKind]int64, numKinds),
		Slow:         s.slow.Load(),
		Duration:     time.Duration(s.elapsed.Load()),
		RowsRead:     s.rowsRead.Load(),
		RowsAffected: s.affected.Load(),
	}
	for _, k := range Kinds {
		snap.Statements[k] = s.statements[k].Load()
		snap.Errors[k] = s.errors[k].Load()
	}
	return snap
}

// Reset sets every counter to zero.
func (s *QueryStats) Reset() {
	for k := range numKinds {
		s.statements[k].Store(0)
		s.errors[k].Store(0)
	}
	s.slow.Store(0)
	s.elapsed.Store(0)
	s.rowsRead.Store(0)
	s.affected.Store(0)
}

// StatsSnapshot is a point-in-time copy of QueryStats. The maps hold an
// entry for every kind in Kinds.
type StatsSnapshot struct {
	Statements map[StatementKind]int64
	Errors     map[StatementKind]int64
	// Slow counts statements slower than the slow threshold.
	Slow     int64
	Duration time.Duration
	// RowsRead counts rows returned by queries.
	RowsRead int64
	// RowsAffected sums the affected-row counts reported by execs.
	RowsAffected int64
}

// Total returns the number of statements of every kind.
func (s StatsSnapshot) Total() int64 {
	var n int64
	for _, c := range s.Statements {
		n += c
	}
	return n
}

// Average returns the mean statement duration.
func (s StatsSnapshot) Average() time.Duration {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return s.Duration / time.Duration(total)
}

// String returns a one-line summary, one counter per kind.
//
//	select=3 insert=1 update=1 delete=2 other=0 errors=0 slow=0 rows_read=3 rows_affected=4 avg=1.2ms
func (s StatsSnapshot) String() string {
	var (
		b      strings.Builder
		failed int64
	)
	for _, k := range Kinds {
		fmt.Fprintf(&b, "%s=%d ", k, s.Statements[k])
		failed += s.Errors[k]
	}
	fmt.Fprintf(&b, "errors=%d slow=%d rows_read=%d rows_affected=%d avg=%s",
		failed, s.Slow, s.RowsRead, s.RowsAffected, s.Average())
	return b.String()
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, stmt *dialect.Statement, duration time.Duration)

// StatsDriver wraps a Driver with query statistics collection.
type StatsDriver struct {
	dialect.Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow query detection.
// Queries taking longer than this duration will be counted as slow queries.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
// The hook is called whenever a query exceeds the slow threshold.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to logger at Warn level. A nil
// logger uses slog.Default.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, stmt *dialect.Statement, duration time.Duration) {
		logger.WarnContext(ctx, "slow query detected", "duration", duration, "query", stmt.Query, "args", len(stmt.Args))
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
// Example:
//
//	drv, _ := sql.Open("postgres", dsn)
//	statsDriver := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	client := crud.NewClient(statsDriver)
//
//	// Later, check statistics:
//	stats := statsDriver.QueryStats().Stats()
//	fmt.Println(stats)
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow query threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, stmt *dialect.Statement) ([]dialect.Row, error) {
	start := time.Now()
	rows, err := d.Driver.Query(ctx, stmt)
	d.record(ctx, stmt, start, err)
	d.stats.rowsRead.Add(int64(len(rows)))
	return rows, err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, stmt *dialect.Statement) (dialect.Result, error) {
	start := time.Now()
	res, err := d.Driver.Exec(ctx, stmt)
	d.record(ctx, stmt, start, err)
	d.affected(res, err)
	return res, err
}

func (d *StatsDriver) record(ctx context.Context, stmt *dialect.Statement, start time.Time, err error) {
	elapsed := time.Since(start)
	d.mu.RLock()
	threshold, hook := d.slowThreshold, d.slowHook
	d.mu.RUnlock()

	slow := elapsed > threshold
	d.stats.add(KindOf(stmt.Query), elapsed, err, slow)
	if slow && hook != nil {
		hook(ctx, stmt, elapsed)
	}
}

func (d *StatsDriver) affected(res dialect.Result, err error) {
	if err != nil || res == nil {
		return
	}
	if n, err := res.RowsAffected(); err == nil {
		d.stats.affected.Add(n)
	}
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query executes a query within the transaction and records statistics.
func (tx *StatsTx) Query(ctx context.Context, stmt *dialect.Statement) ([]dialect.Row, error) {
	start := time.Now()
	rows, err := tx.Tx.Query(ctx, stmt)
	tx.driver.record(ctx, stmt, start, err)
	tx.driver.stats.rowsRead.Add(int64(len(rows)))
	return rows, err
}

// Exec executes a statement within the transaction and records statistics.
func (tx *StatsTx) Exec(ctx context.Context, stmt *dialect.Statement) (dialect.Result, error) {
	start := time.Now()
	res, err := tx.Tx.Exec(ctx, stmt)
	tx.driver.record(ctx, stmt, start, err)
	tx.driver.affected(res, err)
	return res, err
}

// DebugDriver wraps a Driver with statement logging.
type DebugDriver struct {
	dialect.Driver
	log *slog.Logger
}

// NewDebugDriver wraps a Driver with statement logging at Debug level. A nil
// logger uses slog.Default.
//
//	drv, _ := sql.Open("postgres", dsn)
//	client := crud.NewClient(sql.NewDebugDriver(drv, logger))
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, log: logger}
}

// Query logs and executes a query.
func (d *DebugDriver) Query(ctx context.Context, stmt *dialect.Statement) ([]dialect.Row, error) {
	logStatement(ctx, d.log, "query", stmt)
	return d.Driver.Query(ctx, stmt)
}

// Exec logs and executes a statement.
func (d *DebugDriver) Exec(ctx context.Context, stmt *dialect.Statement) (dialect.Result, error) {
	logStatement(ctx, d.log, "exec", stmt)
	return d.Driver.Exec(ctx, stmt)
}

// Tx starts a transaction with statement logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log.DebugContext(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, log: d.log}, nil
}

// DebugTx wraps a transaction with statement logging.
type DebugTx struct {
	dialect.Tx
	log *slog.Logger
}

// Query logs and executes a query within the transaction.
func (tx *DebugTx) Query(ctx context.Context, stmt *dialect.Statement) ([]dialect.Row, error) {
	logStatement(ctx, tx.log, "tx query", stmt)
	return tx.Tx.Query(ctx, stmt)
}

// Exec logs and executes a statement within the transaction.
func (tx *DebugTx) Exec(ctx context.Context, stmt *dialect.Statement) (dialect.Result, error) {
	logStatement(ctx, tx.log, "tx exec", stmt)
	return tx.Tx.Exec(ctx, stmt)
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	tx.log.Debug("commit transaction")
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	tx.log.Debug("rollback transaction")
	return tx.Tx.Rollback()
}

func logStatement(ctx context.Context, logger *slog.Logger, msg string, stmt *dialect.Statement) {
	logger.DebugContext(ctx, msg, "query", stmt.Query, "args", stmt.Args, "tx", stmt.Tx != nil, "timeout", stmt.Timeout)
}

// Ensure interfaces are implemented.
var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)

// OpenWithStats opens a database connection with statistics collection enabled.
//
//	drv, stats, err := sql.OpenWithStats("postgres", dsn,
//	    sql.WithSlowThreshold(100*time.Millisecond),
//	    sql.WithSlowQueryLog(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	prometheus.MustRegister(sql.NewCollector(stats, "app"))
//	client := crud.NewClient(drv)
func OpenWithStats(driverName, source string, opts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	drv, err := Open(driverName, source)
	if err != nil {
		return nil, nil, err
	}
	statsDriver := NewStatsDriver(drv, opts...)
	return statsDriver, statsDriver.QueryStats(), nil
}
