package crud_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/crud/dialect"
	"github.com/syssam/crud/proxy"
	"github.com/syssam/crud/schema"
	"github.com/syssam/crud/schema/field"
)

type User struct {
	Id      int64
	Name    string
	Version int
}

func (User) Fields() []field.Field {
	return []field.Field{
		field.New("Id").Identity(),
		field.New("Name"),
		field.New("Version").ConcurrencyToken(),
	}
}

type Log struct {
	Message string
}

func (Log) Fields() []field.Field { return []field.Field{field.New("Message")} }

type OrderLine struct {
	OrderId int64
	Line    int
	Qty     int
}

func (OrderLine) Fields() []field.Field {
	return []field.Field{
		field.New("OrderId").Key(),
		field.New("Line").Key(),
		field.New("Qty"),
	}
}

// Audited embeds proxy.State to opt into change tracking by hand.
type Audited struct {
	proxy.State
	Id   int64
	Note string
}

func (Audited) Fields() []field.Field {
	return []field.Field{field.New("Id").Identity(), field.New("Note")}
}

type IPost interface {
	Id() int64
	SetId(int64)
	Title() string
	SetTitle(string)
}

type postProxy struct {
	proxy.State
	id    int64
	title string
}

func (p *postProxy) Id() int64 { return p.id }

func (p *postProxy) SetId(v int64) {
	p.id = v
	p.MarkDirty()
}

func (p *postProxy) Title() string { return p.title }

func (p *postProxy) SetTitle(v string) {
	p.title = v
	p.MarkDirty()
}

func (p *postProxy) Fields() []field.Field {
	return []field.Field{
		field.New("Id").Identity(),
		field.New("Title"),
	}
}

func (p *postProxy) TableName() string { return "blog_posts" }

func (p *postProxy) FieldValue(name string) (any, bool) {
	switch name {
	case "Id":
		return p.id, true
	case "Title":
		return p.title, true
	}
	return nil, false
}

func (p *postProxy) SetFieldValue(name string, value any) error {
	switch name {
	case "Id":
		v, err := schema.Convert[int64](value)
		if err != nil {
			return err
		}
		p.SetId(v)
	case "Title":
		v, err := schema.Convert[string](value)
		if err != nil {
			return err
		}
		p.SetTitle(v)
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

type result struct{ id, affected int64 }

func (r result) LastInsertId() (int64, error) { return r.id, nil }
func (r result) RowsAffected() (int64, error) { return r.affected, nil }

// conn records statements and replays canned results.
type conn struct {
	name     string
	execs    []*dialect.Statement
	queries  []*dialect.Statement
	rows     []dialect.Row
	affected []int64
	err      error
}

func (c *conn) Exec(_ context.Context, stmt *dialect.Statement) (dialect.Result, error) {
	c.execs = append(c.execs, stmt)
	if c.err != nil {
		return nil, c.err
	}
	var n int64
	if len(c.affected) > 0 {
		n, c.affected = c.affected[0], c.affected[1:]
	}
	return result{affected: n}, nil
}

func (c *conn) Query(_ context.Context, stmt *dialect.Statement) ([]dialect.Row, error) {
	c.queries = append(c.queries, stmt)
	return c.rows, c.err
}

func (c *conn) Dialect() string { return c.name }

func (c *conn) calls() int { return len(c.execs) + len(c.queries) }

type tx struct{ dialect.ExecQuerier }

func (tx) Commit() error   { return nil }
func (tx) Rollback() error { return nil }

var errUnique = errors.New("constraint failed: UNIQUE constraint failed: Users.Name")
