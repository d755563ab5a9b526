// Package load finds entity contracts in Go packages.
//
// A contract is an interface type annotated with the crud:entity directive.
// Every method is either a getter (no parameters, one result) or the setter
// of a getter, named Set<Name> and taking one value of the getter's result
// type. Directives on a getter or its setter attach field roles:
//
//	//crud:entity
//	//crud:table users
//	type IUser interface {
//	    //crud:identity
//	    Id() int64
//	    SetId(int64)
//	    //crud:version
//	    Version() int32
//	    SetVersion(int32)
//	    //crud:computed
//	    CreatedAt() time.Time
//	}
//
// Recognised role directives are identity, key, computed, version (or
// concurrency_token) and nowrite (or non_writable). A getter without a
// setter is allowed; its proxy stores loaded values but exposes no setter.
package load
