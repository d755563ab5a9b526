package crud

import (
	"time"

	"github.com/syssam/crud/dialect"
)

// CallOption configures a single operation.
type CallOption func(*callConfig)

type callConfig struct {
	tx      dialect.Tx
	timeout time.Duration
}

// WithTx runs the operation within tx.
func WithTx(tx dialect.Tx) CallOption {
	return func(c *callConfig) {
		c.tx = tx
	}
}

// WithTimeout bounds the statements of the operation. The timeout is passed
// to the connection unchanged.
func WithTimeout(d time.Duration) CallOption {
	return func(c *callConfig) {
		c.timeout = d
	}
}

func newCallConfig(opts []CallOption) callConfig {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c callConfig) statement(query string, args dialect.Args) *dialect.Statement {
	return &dialect.Statement{Query: query, Args: args, Tx: c.tx, Timeout: c.timeout}
}
