package field

import "strings"

// Role is a bit set of the markers a field carries.
type Role uint8

// Field roles.
const (
	// RoleIdentity marks a key whose value is generated by the store.
	RoleIdentity Role = 1 << iota
	// RoleKey marks a key assigned by the caller before insert.
	RoleKey
	// RoleComputed marks a field populated by the store. It is selected but never written.
	RoleComputed
	// RoleConcurrencyToken marks the optimistic-concurrency version field.
	RoleConcurrencyToken
	// RoleNonWritable removes the field from the writable set.
	RoleNonWritable
)

var roleNames = []struct {
	role Role
	name string
}{
	{RoleIdentity, "identity"},
	{RoleKey, "key"},
	{RoleComputed, "computed"},
	{RoleConcurrencyToken, "concurrency_token"},
	{RoleNonWritable, "non_writable"},
}

// Has reports whether r contains all roles in o.
func (r Role) Has(o Role) bool { return r&o == o }

// String returns the role names joined by "|".
func (r Role) String() string {
	var names []string
	for _, rn := range roleNames {
		if r.Has(rn.role) {
			names = append(names, rn.name)
		}
	}
	if len(names) == 0 {
		return "plain"
	}
	return strings.Join(names, "|")
}

// ParseRole returns the role for a marker name. The second value is false
// for unknown names.
func ParseRole(name string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "identity":
		return RoleIdentity, true
	case "key", "explicit_key":
		return RoleKey, true
	case "computed":
		return RoleComputed, true
	case "version", "concurrency_token":
		return RoleConcurrencyToken, true
	case "nowrite", "non_writable":
		return RoleNonWritable, true
	}
	return 0, false
}

// Descriptor describes a single declared field of an entity.
type Descriptor struct {
	// Name is the Go field (or accessor) name. It is also the column and
	// parameter name.
	Name string
	// Roles holds the markers declared for the field.
	Roles   Role
	Comment string
}

// IsIdentity reports whether the field is a store-generated key.
func (d *Descriptor) IsIdentity() bool { return d.Roles.Has(RoleIdentity) }

// IsKey reports whether the field is a caller-assigned key.
func (d *Descriptor) IsKey() bool { return d.Roles.Has(RoleKey) }

// IsComputed reports whether the field is populated by the store.
func (d *Descriptor) IsComputed() bool { return d.Roles.Has(RoleComputed) }

// IsConcurrencyToken reports whether the field is the version marker.
func (d *Descriptor) IsConcurrencyToken() bool { return d.Roles.Has(RoleConcurrencyToken) }

// Writable reports whether the field may appear in insert and update lists.
func (d *Descriptor) Writable() bool { return !d.Roles.Has(RoleNonWritable) }

// Field is the interface implemented by field builders.
type Field interface {
	Descriptor() *Descriptor
}

// Builder is the fluent builder for a field declaration.
type Builder struct {
	desc *Descriptor
}

// New returns a builder for a plain field with the given name.
//
//	field.New("Name")
//	field.New("Id").Identity()
//	field.New("Version").ConcurrencyToken()
func New(name string) *Builder {
	return &Builder{desc: &Descriptor{Name: name}}
}

// Identity marks the field as a store-generated key.
func (b *Builder) Identity() *Builder {
	b.desc.Roles |= RoleIdentity
	return b
}

// Key marks the field as a caller-assigned (explicit) key.
func (b *Builder) Key() *Builder {
	b.desc.Roles |= RoleKey
	return b
}

// Computed marks the field as populated by the store.
func (b *Builder) Computed() *Builder {
	b.desc.Roles |= RoleComputed
	return b
}

// ConcurrencyToken marks the field as the optimistic-concurrency version.
func (b *Builder) ConcurrencyToken() *Builder {
	b.desc.Roles |= RoleConcurrencyToken
	return b
}

// NonWritable drops the field from insert and update column lists. Other
// markers on the field still apply.
func (b *Builder) NonWritable() *Builder {
	b.desc.Roles |= RoleNonWritable
	return b
}

// Roles adds the given roles to the field.
func (b *Builder) Roles(r Role) *Builder {
	b.desc.Roles |= r
	return b
}

// Comment sets the field comment.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the Field interface.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}

// Descriptors returns the descriptors of the given fields, skipping nil entries.
func Descriptors(fields []Field) []*Descriptor {
	ds := make([]*Descriptor, 0, len(fields))
	for _, f := range fields {
		if f == nil {
			continue
		}
		if d := f.Descriptor(); d != nil {
			ds = append(ds, d)
		}
	}
	return ds
}
