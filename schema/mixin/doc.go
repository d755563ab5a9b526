// Package mixin provides reusable groups of field declarations.
//
//	func (Order) Fields() []field.Field {
//	    return mixin.Fields([]schema.Schema{mixin.ID{}, mixin.Version{}, mixin.Time{}},
//	        field.New("Total"),
//	    )
//	}
//
// Built-in mixins:
//
//   - ID: "Id" identity key
//   - Version: "Version" concurrency token
//   - Time: "CreatedAt" and "UpdatedAt" computed fields
package mixin
