// Package meta classifies entity types and caches what the crud package
// derives from them: descriptors, table names and statement text.
//
// A type is classified once from its role table. Struct entities declare
// the table with schema.Schema; contract interfaces take it from their
// registered proxy. Classification sorts the declared fields into writable
// fields, identity keys, explicit keys, computed fields and the concurrency
// token. When a type declares neither identity nor explicit keys, a
// writable field named "id" (any case) becomes the identity key.
//
//	reg := meta.NewRegistry()
//	d, err := reg.Describe(reflect.TypeFor[User]())
//	query, err := reg.Query(reflect.TypeFor[User](), meta.Update, dialect.NewPostgresAdapter())
package meta
