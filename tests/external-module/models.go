// Package integration exercises crud against a real SQLite database from
// outside the crud module.
package integration

//go:generate go run github.com/syssam/crud/cmd/crudgen .

import (
	"github.com/syssam/crud/schema"
	"github.com/syssam/crud/schema/field"
	"github.com/syssam/crud/schema/mixin"
)

// IUser is an entity contract. Its proxy lives in crud_proxy.go.
//
//crud:entity
//crud:table users
type IUser interface {
	//crud:identity
	Id() int64
	SetId(int64)
	Name() string
	SetName(string)
	//crud:version
	Version() int64
	SetVersion(int64)
}

// Note is a struct entity with a conventional table name.
type Note struct {
	Id   int64
	Body string
}

func (Note) Fields() []field.Field {
	return mixin.Fields([]schema.Schema{mixin.ID{}}, field.New("Body"))
}

// Tag has a caller-assigned key.
type Tag struct {
	Code  string
	Label string
}

func (Tag) Fields() []field.Field {
	return []field.Field{
		field.New("Code").Key(),
		field.New("Label"),
	}
}

func (Tag) TableName() string { return "tags" }

var (
	_ schema.Schema     = Note{}
	_ schema.TableNamer = Tag{}
)
