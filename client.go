package crud

import (
	"context"
	"io"
	"log/slog"

	"github.com/syssam/crud/dialect"
	"github.com/syssam/crud/dialect/sql"
	"github.com/syssam/crud/meta"
	"github.com/syssam/crud/proxy"
)

// Client runs CRUD operations against a connection. It is safe for
// concurrent use.
type Client struct {
	conn     dialect.ExecQuerier
	registry *meta.Registry
	adapter  dialect.Adapter
	detect   dialect.Detector
	log      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRegistry sets the metadata registry. It defaults to meta.Default.
func WithRegistry(r *meta.Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// WithProxies uses a fresh registry looking contracts up in p.
func WithProxies(p *proxy.Registry) Option {
	return func(c *Client) {
		c.registry = meta.NewRegistry(meta.WithProxies(p))
	}
}

// WithDialectDetector overrides the database kind the connection declares
// when selecting the dialect adapter.
func WithDialectDetector(fn dialect.Detector) Option {
	return func(c *Client) {
		c.detect = fn
	}
}

// WithAdapter sets the dialect adapter, bypassing detection.
func WithAdapter(a dialect.Adapter) Option {
	return func(c *Client) {
		c.adapter = a
	}
}

// WithLogger sets the logger for statement and short-circuit logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient returns a client over conn. The dialect adapter is selected
// once, from the detector when one is configured and from the kind the
// connection declares otherwise; unknown kinds use the SQL Server adapter.
func NewClient(conn dialect.ExecQuerier, opts ...Option) *Client {
	c := &Client{
		conn:     conn,
		registry: meta.Default,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.adapter == nil {
		c.adapter = dialect.Select(conn, c.detect)
	}
	return c
}

// Open opens a database/sql connection and returns a client over it. The
// dialect is detected from the registered driver.
//
//	client, err := crud.Open("pgx", "postgres://localhost/app")
func Open(driverName, source string, opts ...Option) (*Client, error) {
	drv, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return NewClient(drv, append([]Option{WithDialectDetector(sql.Detector)}, opts...)...), nil
}

// Adapter returns the dialect adapter of the client.
func (c *Client) Adapter() dialect.Adapter { return c.adapter }

// Registry returns the metadata registry of the client.
func (c *Client) Registry() *meta.Registry { return c.registry }

// Tx starts a transaction when the connection is a dialect.Driver. Pass it
// to operations with WithTx.
func (c *Client) Tx(ctx context.Context) (dialect.Tx, error) {
	drv, ok := c.conn.(dialect.Driver)
	if !ok {
		return nil, errNoDriver
	}
	return drv.Tx(ctx)
}

// Close closes the connection when it is closable.
func (c *Client) Close() error {
	if cl, ok := c.conn.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
