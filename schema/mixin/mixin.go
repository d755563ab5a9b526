package mixin

import (
	"github.com/syssam/crud/schema"
	"github.com/syssam/crud/schema/field"
)

// Schema is the empty mixin. Embed it in custom mixins and override Fields.
//
//	type Audit struct {
//	    mixin.Schema
//	}
//
//	func (Audit) Fields() []field.Field {
//	    return []field.Field{
//	        field.New("CreatedBy"),
//	        field.New("UpdatedBy"),
//	    }
//	}
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []field.Field { return nil }

var _ schema.Schema = (*Schema)(nil)

// ID declares an "Id" field generated by the store.
type ID struct{ Schema }

// Fields returns the identity field.
func (ID) Fields() []field.Field {
	return []field.Field{
		field.New("Id").Identity(),
	}
}

// Version declares a "Version" concurrency token.
type Version struct{ Schema }

// Fields returns the version field.
func (Version) Fields() []field.Field {
	return []field.Field{
		field.New("Version").ConcurrencyToken(),
	}
}

// Time declares "CreatedAt" and "UpdatedAt" as computed fields maintained by
// the store (column defaults or triggers).
type Time struct{ Schema }

// Fields returns the timestamp fields.
func (Time) Fields() []field.Field {
	return []field.Field{
		field.New("CreatedAt").Computed(),
		field.New("UpdatedAt").Computed(),
	}
}

// Fields concatenates the fields of the given mixins followed by extra,
// preserving declaration order.
//
//	func (Order) Fields() []field.Field {
//	    return mixin.Fields([]schema.Schema{mixin.ID{}, mixin.Version{}},
//	        field.New("Total"),
//	    )
//	}
func Fields(mixins []schema.Schema, extra ...field.Field) []field.Field {
	var fields []field.Field
	for _, m := range mixins {
		fields = append(fields, m.Fields()...)
	}
	return append(fields, extra...)
}

// Annotate wraps a mixin and applies the roles to every field it declares.
//
//	mixin.Annotate(mixin.Time{}, field.RoleNonWritable)
func Annotate(m schema.Schema, roles field.Role) schema.Schema {
	return annotated{Schema: m, roles: roles}
}

type annotated struct {
	schema.Schema
	roles field.Role
}

func (a annotated) Fields() []field.Field {
	fields := a.Schema.Fields()
	for _, f := range fields {
		f.Descriptor().Roles |= a.roles
	}
	return fields
}
