// Package field provides the fluent builder used to declare the role table
// of an entity.
//
// Every entity declares its persisted fields once, with the markers that
// decide how each one takes part in generated statements:
//
//	func (User) Fields() []field.Field {
//	    return []field.Field{
//	        field.New("Id").Identity(),          // generated by the store
//	        field.New("Name"),                   // plain column
//	        field.New("CreatedAt").Computed(),   // selected, never written
//	        field.New("Version").ConcurrencyToken(),
//	        field.New("Secret").NonWritable(),
//	    }
//	}
//
// # Markers
//
//   - Identity: key generated by the store (auto-increment, serial, ...).
//   - Key: key assigned by the caller before insert.
//   - Computed: populated by the store; included in SELECT, excluded from INSERT and UPDATE.
//   - ConcurrencyToken: version marker appended to UPDATE predicates.
//   - NonWritable: excluded from the writable set.
//
// The field name is used as the column and parameter name.
package field
