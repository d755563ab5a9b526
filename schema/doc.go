// Package schema holds the contracts an entity author implements so the
// crud package can map an entity without hand-written SQL.
//
//   - [Schema]: the role table, declared once per entity type with [field] builders.
//   - [TableNamer]: the explicit table-name marker.
//   - [Accessor]: reflection-free field access, implemented by generated proxies.
//
// Concrete struct entities implement [Schema] (and optionally [TableNamer]);
// their field values are read and written by struct field name. Entity
// contracts (interfaces) are implemented by change-tracking proxies produced
// by crudgen, which implement all three interfaces.
//
// Reusable groups of fields live in the [mixin] sub-package.
package schema
