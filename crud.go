package crud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/syssam/crud/dialect"
	"github.com/syssam/crud/meta"
	"github.com/syssam/crud/proxy"
)

// Operation names used in errors and logs.
const (
	opGet        = "get"
	opGetAll     = "get all"
	opInsert     = "insert"
	opInsertAll  = "insert all"
	opUpdate     = "update"
	opUpdateAll  = "update all"
	opDelete     = "delete"
	opDeleteMany = "delete many"
	opDeleteAll  = "delete all"
)

// Get returns the entity whose key equals id. T is a pointer to a struct
// implementing schema.Schema, or a contract interface with a registered
// proxy. The type must have exactly one key. When no row matches, Get
// returns the zero T and a nil error.
//
//	u, err := crud.Get[*User](ctx, client, 42)
//	if err != nil {
//	    return err
//	}
//	if u == nil {
//	    // not found
//	}
func Get[T any](ctx context.Context, c *Client, id any, opts ...CallOption) (T, error) {
	var zero T
	d, err := c.describe(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	if _, err := d.SingleKey(opGet); err != nil {
		return zero, err
	}
	query, err := c.query(d, meta.SelectByKey)
	if err != nil {
		return zero, err
	}
	cfg := newCallConfig(opts)
	rows, err := c.conn.Query(ctx, cfg.statement(query, dialect.Args{"id": id}))
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, nil
	}
	return materialize[T](d, rows[0])
}

// GetAll returns every entity of type T. The type must have exactly one key.
func GetAll[T any](ctx context.Context, c *Client, opts ...CallOption) ([]T, error) {
	d, err := c.describe(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	if _, err := d.SingleKey(opGetAll); err != nil {
		return nil, err
	}
	query, err := c.query(d, meta.SelectAll)
	if err != nil {
		return nil, err
	}
	cfg := newCallConfig(opts)
	rows, err := c.conn.Query(ctx, cfg.statement(query, nil))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		e, err := materialize[T](d, row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Insert inserts e and returns the identity generated by the store, or 0
// when the type has no identity key. When e is a pointer or a tracked
// instance, the identity is also stored into its first identity key.
func Insert[T any](ctx context.Context, c *Client, e T, opts ...CallOption) (int64, error) {
	v, err := entity(opInsert, e, -1)
	if err != nil {
		return 0, err
	}
	d, err := c.describe(reflect.TypeFor[T]())
	if err != nil {
		return 0, err
	}
	args, err := d.Args(v, d.Inserted())
	if err != nil {
		return 0, err
	}
	columns, params := meta.BuildInsert(d, c.adapter)
	cfg := newCallConfig(opts)
	req := &dialect.InsertRequest{
		Table:   c.registry.TableName(d.Type),
		Columns: columns,
		Params:  params,
		Args:    args,
		Keys:    d.IdentityNames(),
		Entity:  d.Setter(v),
		Tx:      cfg.tx,
		Timeout: cfg.timeout,
	}
	c.log.DebugContext(ctx, "crud: insert", "type", d.Name, "table", req.Table, "dialect", c.adapter.Kind())
	return c.adapter.Insert(ctx, c.conn, req)
}

// InsertAll inserts es with one multi-row statement and returns the number
// of affected rows. Generated identities are not read back. An empty list
// returns 0 without a store call.
func InsertAll[T any](ctx context.Context, c *Client, es []T, opts ...CallOption) (int64, error) {
	if len(es) == 0 {
		return 0, nil
	}
	values := make([]any, len(es))
	for i, e := range es {
		v, err := entity(opInsertAll, e, i)
		if err != nil {
			return 0, err
		}
		values[i] = v
	}
	d, err := c.describe(reflect.TypeFor[T]())
	if err != nil {
		return 0, err
	}
	fields := d.Inserted()
	args := make(dialect.Args, len(fields)*len(values))
	for i, v := range values {
		for _, f := range fields {
			x, err := d.Value(v, f)
			if err != nil {
				return 0, err
			}
			args[meta.BatchParam(f.Name, i)] = x
		}
	}
	query := meta.BuildInsertBatch(d, c.registry.TableName(d.Type), c.adapter, len(values))
	return c.exec(ctx, opInsertAll, d, query, args, newCallConfig(opts))
}

// Update writes the writable fields of e to its row, matched by key and
// concurrency token, and reports whether a row was affected. A tracked
// entity that is not dirty is not written and Update returns false.
func Update[T any](ctx context.Context, c *Client, e T, opts ...CallOption) (bool, error) {
	v, err := entity(opUpdate, e, -1)
	if err != nil {
		return false, err
	}
	if clean(v) {
		c.log.DebugContext(ctx, "crud: update skipped, entity not modified", "type", reflect.TypeFor[T]())
		return false, nil
	}
	d, err := c.describe(reflect.TypeFor[T]())
	if err != nil {
		return false, err
	}
	n, err := c.update(ctx, d, v, newCallConfig(opts))
	return n > 0, err
}

// UpdateAll updates es in order and reports whether any row was affected.
// Tracked entities that are not dirty are skipped. It stops at the first
// error.
func UpdateAll[T any](ctx context.Context, c *Client, es []T, opts ...CallOption) (bool, error) {
	if len(es) == 0 {
		return false, nil
	}
	d, err := c.describe(reflect.TypeFor[T]())
	if err != nil {
		return false, err
	}
	cfg := newCallConfig(opts)
	var total int64
	for i, e := range es {
		v, err := entity(opUpdateAll, e, i)
		if err != nil {
			return total > 0, err
		}
		if clean(v) {
			continue
		}
		n, err := c.update(ctx, d, v, cfg)
		if err != nil {
			return total > 0, err
		}
		total += n
	}
	return total > 0, nil
}

// Delete deletes the row of e, matched by key, and reports whether a row
// was affected.
func Delete[T any](ctx context.Context, c *Client, e T, opts ...CallOption) (bool, error) {
	v, err := entity(opDelete, e, -1)
	if err != nil {
		return false, err
	}
	d, err := c.describe(reflect.TypeFor[T]())
	if err != nil {
		return false, err
	}
	n, err := c.delete(ctx, d, v, newCallConfig(opts))
	return n > 0, err
}

// DeleteMany deletes es in order and reports whether any row was affected.
// It stops at the first error.
func DeleteMany[T any](ctx context.Context, c *Client, es []T, opts ...CallOption) (bool, error) {
	if len(es) == 0 {
		return false, nil
	}
	d, err := c.describe(reflect.TypeFor[T]())
	if err != nil {
		return false, err
	}
	cfg := newCallConfig(opts)
	var total int64
	for i, e := range es {
		v, err := entity(opDeleteMany, e, i)
		if err != nil {
			return total > 0, err
		}
		n, err := c.delete(ctx, d, v, cfg)
		if err != nil {
			return total > 0, err
		}
		total += n
	}
	return total > 0, nil
}

// DeleteAll deletes every row of the table of T and reports whether a row
// was affected.
func DeleteAll[T any](ctx context.Context, c *Client, opts ...CallOption) (bool, error) {
	t := reflect.TypeFor[T]()
	query := meta.BuildDeleteAll(c.registry.TableName(t))
	n, err := c.exec(ctx, opDeleteAll, nil, query, nil, newCallConfig(opts))
	return n > 0, err
}

// NewTracked returns a new change-tracking instance of contract T with a
// clear dirty flag.
//
//	p, err := crud.NewTracked[IPost](client)
//	p.SetTitle("hello")
//	_, err = crud.Insert(ctx, client, p)
func NewTracked[T any](c *Client) (T, error) {
	return proxy.NewFrom[T](c.registry.Proxies())
}

func (c *Client) describe(t reflect.Type) (*meta.Descriptor, error) {
	return c.registry.Describe(t)
}

func (c *Client) query(d *meta.Descriptor, kind meta.StatementKind) (string, error) {
	return c.registry.Query(d.Type, kind, c.adapter)
}

func (c *Client) update(ctx context.Context, d *meta.Descriptor, v any, cfg callConfig) (int64, error) {
	query, err := c.query(d, meta.Update)
	if err != nil {
		return 0, err
	}
	args, err := d.Args(v, d.UpdateArgs())
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, opUpdate, d, query, args, cfg)
}

func (c *Client) delete(ctx context.Context, d *meta.Descriptor, v any, cfg callConfig) (int64, error) {
	query, err := c.query(d, meta.Delete)
	if err != nil {
		return 0, err
	}
	args, err := d.Args(v, d.Keys())
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, opDelete, d, query, args, cfg)
}

// exec runs a statement and returns the affected-row count. Store errors
// are returned unchanged.
func (c *Client) exec(ctx context.Context, op string, d *meta.Descriptor, query string, args dialect.Args, cfg callConfig) (int64, error) {
	name := ""
	if d != nil {
		name = d.Name
	}
	c.log.DebugContext(ctx, "crud: exec", "op", op, "type", name, "query", query)
	res, err := c.conn.Exec(ctx, cfg.statement(query, args))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// entity checks e for nil and returns the value the descriptor reads and
// writes: e itself, or a pointer to a copy for struct values.
func entity[T any](op string, e T, index int) (any, error) {
	v := any(e)
	if v == nil {
		return nil, &ArgumentError{Op: op, Name: "entity", Index: index}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			return nil, &ArgumentError{Op: op, Name: "entity", Index: index}
		}
	case reflect.Struct:
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		return p.Interface(), nil
	}
	return v, nil
}

// clean reports whether v is tracked and unmodified.
func clean(v any) bool {
	t, ok := v.(proxy.Tracked)
	return ok && !t.IsDirty()
}

// materialize builds a T from row. Tracked instances are returned with a
// clear dirty flag.
func materialize[T any](d *meta.Descriptor, row dialect.Row) (T, error) {
	var zero T
	e := d.New()
	if err := d.Load(e, row); err != nil {
		return zero, err
	}
	if t, ok := e.(proxy.Tracked); ok {
		t.SetDirty(false)
	}
	if v, ok := e.(T); ok {
		return v, nil
	}
	// T is a struct value type and e points to it.
	if v, ok := reflect.ValueOf(e).Elem().Interface().(T); ok {
		return v, nil
	}
	return zero, fmt.Errorf("crud: %T does not implement %s", e, reflect.TypeFor[T]())
}
