package sql

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports QueryStats as Prometheus metrics. Statement and error
// counters carry a "kind" label with the values of StatementKind.String.
type Collector struct {
	stats *QueryStats

	statements *prometheus.Desc
	errors     *prometheus.Desc
	duration   *prometheus.Desc
	slow       *prometheus.Desc
	rowsRead   *prometheus.Desc
	affected   *prometheus.Desc
}

// NewCollector returns a collector reading stats. Metric names are prefixed
// with namespace when it is not empty.
//
//	prometheus.MustRegister(sql.NewCollector(drv.QueryStats(), "app"))
func NewCollector(stats *QueryStats, namespace string) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "crud", name), help, labels, nil)
	}
	return &Collector{
		stats:      stats,
		statements: desc("statements_total", "Number of statements executed, by kind.", "kind"),
		errors:     desc("statement_errors_total", "Number of statements that returned an error, by kind.", "kind"),
		duration:   desc("statement_duration_seconds_total", "Total time spent executing statements."),
		slow:       desc("slow_statements_total", "Number of statements slower than the slow threshold."),
		rowsRead:   desc("rows_read_total", "Number of rows returned by queries."),
		affected:   desc("rows_affected_total", "Number of rows changed by inserts, updates and deletes."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.statements
	ch <- c.errors
	ch <- c.duration
	ch <- c.slow
	ch <- c.rowsRead
	ch <- c.affected
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Stats()
	for _, k := range Kinds {
		ch <- prometheus.MustNewConstMetric(c.statements, prometheus.CounterValue, float64(s.Statements[k]), k.String())
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors[k]), k.String())
	}
	ch <- prometheus.MustNewConstMetric(c.duration, prometheus.CounterValue, s.Duration.Seconds())
	ch <- prometheus.MustNewConstMetric(c.slow, prometheus.CounterValue, float64(s.Slow))
	ch <- prometheus.MustNewConstMetric(c.rowsRead, prometheus.CounterValue, float64(s.RowsRead))
	ch <- prometheus.MustNewConstMetric(c.affected, prometheus.CounterValue, float64(s.RowsAffected))
}

var _ prometheus.Collector = (*Collector)(nil)
