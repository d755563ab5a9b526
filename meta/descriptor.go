package meta

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/crud/dialect"
	"github.com/syssam/crud/proxy"
	"github.com/syssam/crud/schema"
	"github.com/syssam/crud/schema/field"
)

// Field is a classified entity field.
type Field struct {
	// Name is the field, column and parameter name.
	Name string
	// Roles are the effective roles of the field. A field adopted as
	// identity key by convention carries field.RoleIdentity.
	Roles field.Role

	index []int // struct field index, nil when read through schema.Accessor
}

// IsKey reports whether the field is an identity or explicit key.
func (f *Field) IsKey() bool {
	return f.Roles.Has(field.RoleIdentity) || f.Roles.Has(field.RoleKey)
}

// Descriptor is the classification of an entity type. It is immutable once
// built and shared by every caller of the registry.
type Descriptor struct {
	// Type is the entity type with one level of pointer stripped.
	Type reflect.Type
	// Name is the type name.
	Name string
	// Contract reports whether instances are created from a registered
	// proxy shape. Type is then the contract or the concrete proxy.
	Contract bool
	// Fields lists every declared field in declaration order.
	Fields []*Field
	// Writable lists the fields that are not marked non-writable.
	Writable     []*Field
	IdentityKeys []*Field
	ExplicitKeys []*Field
	Computed     []*Field
	// Token is the concurrency token, nil when the type has none.
	Token *Field

	shape  *proxy.Shape
	byName map[string]*Field
	// decodable is set for struct entities whose fields are reachable
	// without crossing an embedded pointer or unexported embedding, so rows
	// decode in one pass.
	decodable bool
}

// classify builds the descriptor of t from its declared role table. Fields
// of accessor types are read through schema.Accessor; the others must be
// exported struct fields.
func classify(t reflect.Type, fields []*field.Descriptor, shape *proxy.Shape, accessor bool) (*Descriptor, error) {
	d := &Descriptor{
		Type:      t,
		Name:      t.Name(),
		Contract:  shape != nil,
		shape:     shape,
		byName:    make(map[string]*Field, len(fields)),
		decodable: !accessor,
	}
	var (
		tokens      []*Field
		hasExplicit bool
	)
	for _, fd := range fields {
		if _, ok := d.byName[fd.Name]; ok {
			return nil, configError(t, "classify", fmt.Errorf("%w: %s", ErrDuplicateField, fd.Name))
		}
		f := &Field{Name: fd.Name, Roles: fd.Roles}
		if !accessor {
			sf, ok := t.FieldByName(fd.Name)
			if !ok || !sf.IsExported() {
				return nil, configError(t, "classify", fmt.Errorf("%w: %s", ErrUnknownField, fd.Name))
			}
			f.index = sf.Index
			if !flat(t, sf.Index) {
				d.decodable = false
			}
		}
		d.byName[f.Name] = f
		d.Fields = append(d.Fields, f)
		if fd.IsIdentity() {
			d.IdentityKeys = append(d.IdentityKeys, f)
		}
		if fd.IsKey() {
			hasExplicit = true
			d.ExplicitKeys = append(d.ExplicitKeys, f)
		}
		if fd.IsComputed() {
			d.Computed = append(d.Computed, f)
		}
		if fd.IsConcurrencyToken() {
			tokens = append(tokens, f)
		}
		if fd.Writable() {
			d.Writable = append(d.Writable, f)
		}
	}
	if len(tokens) > 1 {
		names := make([]string, len(tokens))
		for i, f := range tokens {
			names[i] = f.Name
		}
		return nil, configError(t, "classify", fmt.Errorf("%w: %s", ErrMultipleTokens, strings.Join(names, ", ")))
	}
	if len(tokens) == 1 {
		d.Token = tokens[0]
	}
	if len(d.IdentityKeys) == 0 && !hasExplicit {
		for _, f := range d.Writable {
			if strings.EqualFold(f.Name, "id") {
				f.Roles |= field.RoleIdentity
				d.IdentityKeys = []*Field{f}
				break
			}
		}
	}
	return d, nil
}

// flat reports whether the field at index is reached through exported
// embedded struct values only.
func flat(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Type.Kind() != reflect.Struct {
			return false
		}
		t = sf.Type
	}
	return true
}

// Field returns the named field.
func (d *Descriptor) Field(name string) (*Field, bool) {
	f, ok := d.byName[name]
	return f, ok
}

// Keys returns the identity keys followed by the explicit keys.
func (d *Descriptor) Keys() []*Field {
	keys := make([]*Field, 0, len(d.IdentityKeys)+len(d.ExplicitKeys))
	keys = append(keys, d.IdentityKeys...)
	for _, f := range d.ExplicitKeys {
		if !f.Roles.Has(field.RoleIdentity) {
			keys = append(keys, f)
		}
	}
	return keys
}

// IdentityNames returns the names of the identity keys.
func (d *Descriptor) IdentityNames() []string {
	names := make([]string, len(d.IdentityKeys))
	for i, f := range d.IdentityKeys {
		names[i] = f.Name
	}
	return names
}

// SingleKey returns the only key of the type. It fails with ErrKeyCount
// unless the type has exactly one identity or explicit key.
func (d *Descriptor) SingleKey(op string) (*Field, error) {
	keys := d.Keys()
	if len(keys) != 1 {
		return nil, configError(d.Type, op, fmt.Errorf("%w: %s has %d", ErrKeyCount, d.Name, len(keys)))
	}
	return keys[0], nil
}

// Selected returns the columns read by selects in declaration order:
// writable fields, keys, computed fields and the concurrency token.
func (d *Descriptor) Selected() []*Field {
	out := make([]*Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.IsKey() || f.Roles.Has(field.RoleComputed) || f.Roles.Has(field.RoleConcurrencyToken) || !f.Roles.Has(field.RoleNonWritable) {
			out = append(out, f)
		}
	}
	return out
}

// Inserted returns the writable fields minus identity keys, computed fields
// and the concurrency token. Explicit keys are assigned by the caller and
// are inserted.
func (d *Descriptor) Inserted() []*Field {
	return d.writable(func(f *Field) bool { return f.Roles.Has(field.RoleIdentity) })
}

// Updated returns the writable fields minus keys, computed fields and the
// concurrency token.
func (d *Descriptor) Updated() []*Field {
	return d.writable((*Field).IsKey)
}

func (d *Descriptor) writable(skip func(*Field) bool) []*Field {
	out := make([]*Field, 0, len(d.Writable))
	for _, f := range d.Writable {
		if !skip(f) && !f.Roles.Has(field.RoleComputed) && f != d.Token {
			out = append(out, f)
		}
	}
	return out
}

// New returns a new instance of the entity: a pointer to a zero struct, or
// a tracked proxy with a clear dirty flag.
func (d *Descriptor) New() any {
	if d.shape != nil {
		return d.shape.New()
	}
	return reflect.New(d.Type).Interface()
}

// Value returns the value of f on the entity e.
func (d *Descriptor) Value(e any, f *Field) (any, error) {
	if f.index != nil {
		v := reflect.Indirect(reflect.ValueOf(e))
		if v.Kind() != reflect.Struct {
			return nil, fmt.Errorf("meta: %T is not a %s", e, d.Type)
		}
		fv, err := v.FieldByIndexErr(f.index)
		if err != nil {
			return nil, fmt.Errorf("meta: reading %s.%s: %w", d.Name, f.Name, err)
		}
		return fv.Interface(), nil
	}
	a, ok := e.(schema.Accessor)
	if !ok {
		return nil, fmt.Errorf("meta: %T does not implement schema.Accessor", e)
	}
	v, ok := a.FieldValue(f.Name)
	if !ok {
		return nil, configError(d.Type, "read", fmt.Errorf("%w: %s", ErrUnknownField, f.Name))
	}
	return v, nil
}

// Set converts v and stores it into f on the entity e, which must be a
// pointer for struct entities.
func (d *Descriptor) Set(e any, f *Field, v any) error {
	if f.index != nil {
		rv := reflect.ValueOf(e)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("meta: cannot set %s.%s on %T", d.Name, f.Name, e)
		}
		fv, err := rv.Elem().FieldByIndexErr(f.index)
		if err != nil {
			return fmt.Errorf("meta: setting %s.%s: %w", d.Name, f.Name, err)
		}
		if err := schema.AssignValue(fv, v); err != nil {
			return fmt.Errorf("meta: setting %s.%s: %w", d.Name, f.Name, err)
		}
		return nil
	}
	a, ok := e.(schema.Accessor)
	if !ok {
		return fmt.Errorf("meta: %T does not implement schema.Accessor", e)
	}
	return a.SetFieldValue(f.Name, v)
}

// Args collects the values of fields into statement arguments.
func (d *Descriptor) Args(e any, fields []*Field) (dialect.Args, error) {
	args := make(dialect.Args, len(fields))
	for _, f := range fields {
		v, err := d.Value(e, f)
		if err != nil {
			return nil, err
		}
		args[f.Name] = v
	}
	return args, nil
}

// Load stores the columns of row into e. Columns that are not fields of the
// entity are ignored. Struct entities are decoded in one pass.
func (d *Descriptor) Load(e any, row dialect.Row) error {
	if d.decodable {
		rv := reflect.ValueOf(e)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != d.Type {
			return fmt.Errorf("meta: cannot load %s into %T", d.Name, e)
		}
		in := make(map[string]any, len(row))
		for name, v := range row {
			if _, ok := d.byName[name]; ok {
				in[name] = v
			}
		}
		if err := schema.DecodeRow(e, in); err != nil {
			return fmt.Errorf("meta: loading %s: %w", d.Name, err)
		}
		return nil
	}
	for name, v := range row {
		f, ok := d.byName[name]
		if !ok {
			continue
		}
		if err := d.Set(e, f, v); err != nil {
			return err
		}
	}
	return nil
}

// Setter returns a dialect.KeySetter storing generated keys into e.
func (d *Descriptor) Setter(e any) dialect.KeySetter {
	return setter{d: d, e: e}
}

type setter struct {
	d *Descriptor
	e any
}

func (s setter) SetFieldValue(name string, v any) error {
	f, ok := s.d.byName[name]
	if !ok {
		return configError(s.d.Type, "set", fmt.Errorf("%w: %s", ErrUnknownField, name))
	}
	return s.d.Set(s.e, f, v)
}
