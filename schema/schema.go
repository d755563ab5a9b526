package schema

import "github.com/syssam/crud/schema/field"

// Schema is implemented by entities that declare their role table.
//
//	type User struct {
//	    Id   int64
//	    Name string
//	}
//
//	func (User) Fields() []field.Field {
//	    return []field.Field{
//	        field.New("Id").Identity(),
//	        field.New("Name"),
//	    }
//	}
type Schema interface {
	Fields() []field.Field
}

// TableNamer is the explicit table-name marker. It takes precedence over the
// naming convention but not over a table-name mapper configured on the
// registry.
type TableNamer interface {
	TableName() string
}

// Accessor gives name-based access to the fields of an entity without
// reflection. Generated change-tracking proxies implement it.
type Accessor interface {
	// FieldValue returns the value of the named field. The second value is
	// false if the entity has no such field.
	FieldValue(name string) (any, bool)
	// SetFieldValue converts value to the field type and stores it through
	// the field setter.
	SetFieldValue(name string, value any) error
}
