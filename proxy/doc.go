// Package proxy implements change tracking for entities declared as
// contracts (Go interfaces) rather than concrete structs.
//
// A change-tracking proxy is a concrete struct implementing the contract.
// It embeds [State], keeps one slot per contract field and marks itself
// dirty from every setter. Proxies are produced at build time by crudgen
// and register a typed constructor with [Register] from init:
//
//	//crud:entity
//	//crud:table users
//	type IUser interface {
//	    //crud:identity
//	    Id() int64
//	    SetId(int64)
//	    Name() string
//	    SetName(string)
//	}
//
// The crud package materialises rows of IUser into fresh proxies, clears
// the dirty flag once a row is loaded, and skips the UPDATE of a proxy whose
// flag is still clear.
//
// Proxies may also be written by hand; they must embed [State] and implement
// schema.Schema and schema.Accessor in addition to the contract.
package proxy
