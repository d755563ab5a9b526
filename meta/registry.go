package meta

import (
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"

	"github.com/syssam/crud/dialect"
	"github.com/syssam/crud/proxy"
	"github.com/syssam/crud/schema"
	"github.com/syssam/crud/schema/field"
)

// Registry caches entity descriptors, table names and statement text.
// Entries are populated on first use and kept for the lifetime of the
// registry; there is no eviction. Population takes no lock: concurrent
// callers may build the same entry twice, and the results are identical.
type Registry struct {
	proxies *proxy.Registry
	mapper  func(reflect.Type) string

	descriptors sync.Map // reflect.Type -> *Descriptor
	tables      sync.Map // reflect.Type -> string
	statements  sync.Map // StatementKey -> string
}

// Option configures a Registry.
type Option func(*Registry)

// WithTableNameMapper sets a callback resolving table names. A non-empty
// result takes precedence over table-name markers and the convention.
func WithTableNameMapper(fn func(reflect.Type) string) Option {
	return func(r *Registry) {
		r.mapper = fn
	}
}

// WithProxies sets the proxy registry contracts are looked up in.
// It defaults to proxy.Default.
func WithProxies(p *proxy.Registry) Option {
	return func(r *Registry) {
		r.proxies = p
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{proxies: proxy.Default}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Proxies returns the proxy registry of r.
func (r *Registry) Proxies() *proxy.Registry {
	return r.proxies
}

func indirect(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// Describe returns the descriptor of t, classifying it on first use.
// Classification errors are returned on every call and never cached.
func (r *Registry) Describe(t reflect.Type) (*Descriptor, error) {
	t = indirect(t)
	if v, ok := r.descriptors.Load(t); ok {
		return v.(*Descriptor), nil
	}
	d, err := r.describe(t)
	if err != nil {
		return nil, err
	}
	v, _ := r.descriptors.LoadOrStore(t, d)
	return v.(*Descriptor), nil
}

func (r *Registry) describe(t reflect.Type) (*Descriptor, error) {
	switch t.Kind() {
	case reflect.Interface:
		shape, ok := r.proxies.Lookup(t)
		if !ok {
			return nil, configError(t, "classify", ErrNotRegistered)
		}
		return classify(t, shape.Fields, shape, true)
	case reflect.Struct:
		if shape, ok := r.proxies.LookupImpl(t); ok {
			return classify(t, shape.Fields, shape, true)
		}
		e := reflect.New(t).Interface()
		s, ok := e.(schema.Schema)
		if !ok {
			return nil, configError(t, "classify", ErrNoSchema)
		}
		_, accessor := e.(schema.Accessor)
		return classify(t, field.Descriptors(s.Fields()), nil, accessor)
	default:
		return nil, configError(t, "classify", ErrNoSchema)
	}
}

// TableName returns the table name of t. Precedence: the table-name mapper,
// then a schema.TableNamer implementation or the table registered with the
// contract proxy, then the pluralised type name. Contract names lose a
// leading "I" before pluralisation: IUser maps to Users.
func (r *Registry) TableName(t reflect.Type) string {
	t = indirect(t)
	if v, ok := r.tables.Load(t); ok {
		return v.(string)
	}
	name := r.tableName(t)
	r.tables.Store(t, name)
	return name
}

func (r *Registry) tableName(t reflect.Type) string {
	if r.mapper != nil {
		if name := r.mapper(t); name != "" {
			return name
		}
	}
	if shape, ok := r.proxies.LookupImpl(t); ok {
		t = shape.Contract
	}
	if t.Kind() == reflect.Interface {
		if shape, ok := r.proxies.Lookup(t); ok && shape.Table != "" {
			return shape.Table
		}
	} else if tn, ok := reflect.New(t).Interface().(schema.TableNamer); ok {
		if name := tn.TableName(); name != "" {
			return name
		}
	}
	name := t.Name()
	if t.Kind() == reflect.Interface {
		name = stripContractPrefix(name)
	}
	return inflect.Pluralize(name)
}

func stripContractPrefix(name string) string {
	if len(name) < 2 || name[0] != 'I' {
		return name
	}
	if r, _ := utf8.DecodeRuneInString(name[1:]); unicode.IsUpper(r) {
		return name[1:]
	}
	return name
}

// StatementKind enumerates the cached statements.
type StatementKind uint8

// Statement kinds.
const (
	SelectByKey StatementKind = iota
	SelectAll
	Update
	Delete
)

// String returns the statement kind name.
func (k StatementKind) String() string {
	switch k {
	case SelectByKey:
		return "select by key"
	case SelectAll:
		return "select all"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// StatementKey identifies a cached statement. Adapters of different kinds
// quote differently, so the dialect is part of the key.
type StatementKey struct {
	Type    reflect.Type
	Kind    StatementKind
	Dialect dialect.Kind
}

// Statement returns the cached text for key, calling build on a miss.
// Build errors are returned and not cached.
func (r *Registry) Statement(key StatementKey, build func() (string, error)) (string, error) {
	key.Type = indirect(key.Type)
	if v, ok := r.statements.Load(key); ok {
		return v.(string), nil
	}
	query, err := build()
	if err != nil {
		return "", err
	}
	r.statements.Store(key, query)
	return query, nil
}

// Query returns the statement of the given kind for t and adapter a,
// classifying t, resolving its table and building the text as needed.
func (r *Registry) Query(t reflect.Type, kind StatementKind, a dialect.Adapter) (string, error) {
	d, err := r.Describe(t)
	if err != nil {
		return "", err
	}
	key := StatementKey{Type: d.Type, Kind: kind, Dialect: a.Kind()}
	return r.Statement(key, func() (string, error) {
		table := r.TableName(d.Type)
		switch kind {
		case SelectByKey:
			return BuildSelectByKey(d, table, a)
		case SelectAll:
			return BuildSelectAll(d, table, a), nil
		case Update:
			return BuildUpdate(d, table, a)
		case Delete:
			return BuildDelete(d, table, a)
		default:
			return "", configError(d.Type, kind.String(), errUnknownKind)
		}
	})
}
