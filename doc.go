// Package crud maps entity types to SQL and runs create, read, update and
// delete operations against a generic connection without hand-written SQL.
//
// An entity is either a struct declaring its role table,
//
//	type User struct {
//	    Id      int64
//	    Name    string
//	    Version int
//	}
//
//	func (User) Fields() []field.Field {
//	    return []field.Field{
//	        field.New("Id").Identity(),
//	        field.New("Name"),
//	        field.New("Version").ConcurrencyToken(),
//	    }
//	}
//
// or a contract interface annotated with //crud:entity, for which crudgen
// generates a change-tracking proxy. Proxies record whether a setter ran
// since they were loaded, and Update skips clean ones.
//
//	client := crud.NewClient(drv)
//	u, err := crud.Get[*User](ctx, client, 42)
//	u.Name = "a8m"
//	ok, err := crud.Update(ctx, client, u)
//
// Statements are built once per type, statement kind and dialect, and
// cached for the lifetime of the registry. Store errors are returned
// unchanged; configuration errors match ErrConfig.
package crud
