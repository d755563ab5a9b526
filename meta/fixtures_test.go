package meta_test

import (
	"fmt"

	"github.com/syssam/crud/proxy"
	"github.com/syssam/crud/schema"
	"github.com/syssam/crud/schema/field"
)

type IPost interface {
	Id() int64
	SetId(int64)
	Title() string
	SetTitle(string)
	Body() string
	SetBody(string)
}

type postProxy struct {
	proxy.State
	id          int64
	title, body string
}

func newPost() IPost { return &postProxy{} }

func (p *postProxy) Id() int64         { return p.id }
func (p *postProxy) Title() string     { return p.title }
func (p *postProxy) Body() string      { return p.body }
func (p *postProxy) SetId(v int64)     { p.id = v; p.MarkDirty() }
func (p *postProxy) SetTitle(v string) { p.title = v; p.MarkDirty() }
func (p *postProxy) SetBody(v string)  { p.body = v; p.MarkDirty() }

func (p *postProxy) Fields() []field.Field {
	return []field.Field{
		field.New("Id").Identity(),
		field.New("Title"),
		field.New("Body"),
	}
}

func (p *postProxy) TableName() string { return "blog_posts" }

func (p *postProxy) FieldValue(name string) (any, bool) {
	switch name {
	case "Id":
		return p.id, true
	case "Title":
		return p.title, true
	case "Body":
		return p.body, true
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
	case "Title", "Body":
		v, err := schema.Convert[string](value)
		if err != nil {
			return err
		}
		if name == "Title" {
			p.SetTitle(v)
		} else {
			p.SetBody(v)
		}
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

type IComment interface {
	Id() int64
	Text() string
}

type commentProxy struct {
	proxy.State
	id   int64
	text string
}

func newComment() IComment { return &commentProxy{} }

func (c *commentProxy) Id() int64    { return c.id }
func (c *commentProxy) Text() string { return c.text }
func (c *commentProxy) Fields() []field.Field {
	return []field.Field{field.New("Id"), field.New("Text")}
}

func (c *commentProxy) FieldValue(name string) (any, bool) {
	switch name {
	case "Id":
		return c.id, true
	case "Text":
		return c.text, true
	}
	return nil, false
}

func (c *commentProxy) SetFieldValue(name string, value any) (err error) {
	switch name {
	case "Id":
		c.id, err = schema.Convert[int64](value)
	case "Text":
		c.text, err = schema.Convert[string](value)
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	c.MarkDirty()
	return err
}
