package proxy

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/syssam/crud/schema"
	"github.com/syssam/crud/schema/field"
)

var (
	// ErrNotRegistered is returned when no proxy was registered for a contract.
	ErrNotRegistered = errors.New("proxy: contract not registered")
	// ErrInvalidContract is returned when a registration does not satisfy the
	// requirements of a change-tracking proxy.
	ErrInvalidContract = errors.New("proxy: invalid contract")
)

// Tracked is the dirty-flag capability of a change-tracking proxy.
type Tracked interface {
	IsDirty() bool
	SetDirty(bool)
}

// State holds the dirty flag. Proxies embed it and call MarkDirty from every
// setter. State is not safe for concurrent use.
type State struct {
	dirty bool
}

// IsDirty reports whether a field was set since the flag was last cleared.
func (s *State) IsDirty() bool { return s.dirty }

// SetDirty sets the dirty flag.
func (s *State) SetDirty(dirty bool) { s.dirty = dirty }

// MarkDirty sets the dirty flag to true.
func (s *State) MarkDirty() { s.dirty = true }

// Entity is the full set of capabilities a registered proxy provides.
type Entity interface {
	Tracked
	schema.Schema
	schema.Accessor
}

// Shape is the registration of one entity contract: its role table, its
// table-name marker and the constructor of the concrete proxy.
type Shape struct {
	// Contract is the interface type the proxy implements.
	Contract reflect.Type
	// Fields is the role table declared by the proxy, in declaration order.
	Fields []*field.Descriptor
	// Table is the explicit table name, empty when the contract has none.
	Table string
	// Impl is the concrete proxy type, with one level of pointer stripped.
	Impl reflect.Type

	newFn func() Entity
}

// New returns a fresh proxy instance with a clear dirty flag.
func (s *Shape) New() Entity {
	e := s.newFn()
	e.SetDirty(false)
	return e
}

// Registry maps entity contracts to their proxy shapes. Shapes are created
// once per contract and kept for the lifetime of the registry.
type Registry struct {
	shapes sync.Map // contract reflect.Type -> *Shape
	impls  sync.Map // proxy reflect.Type -> *Shape
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default is the registry generated proxies register into.
var Default = NewRegistry()

// Lookup returns the shape registered for the contract type.
func (r *Registry) Lookup(contract reflect.Type) (*Shape, bool) {
	v, ok := r.shapes.Load(contract)
	if !ok {
		return nil, false
	}
	return v.(*Shape), true
}

// LookupImpl returns the shape whose proxy has the concrete type t.
// Pointer types are looked up by their element type.
func (r *Registry) LookupImpl(t reflect.Type) (*Shape, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	v, ok := r.impls.Load(t)
	if !ok {
		return nil, false
	}
	return v.(*Shape), true
}

// Len returns the number of registered contracts.
func (r *Registry) Len() int {
	n := 0
	r.shapes.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

func (r *Registry) register(contract reflect.Type, newFn func() any) (*Shape, error) {
	if v, ok := r.shapes.Load(contract); ok {
		return v.(*Shape), nil
	}
	if contract.Kind() != reflect.Interface {
		return nil, fmt.Errorf("%w: %s is not an interface type", ErrInvalidContract, contract)
	}
	sample, ok := newFn().(Entity)
	if !ok {
		return nil, fmt.Errorf("%w: proxy for %s must implement Tracked, schema.Schema and schema.Accessor", ErrInvalidContract, contract)
	}
	impl := reflect.TypeOf(sample)
	if impl.Kind() == reflect.Pointer {
		impl = impl.Elem()
	}
	s := &Shape{
		Contract: contract,
		Fields:   field.Descriptors(sample.Fields()),
		Impl:     impl,
		newFn:    func() Entity { return newFn().(Entity) },
	}
	if tn, ok := sample.(schema.TableNamer); ok {
		s.Table = tn.TableName()
	}
	v, loaded := r.shapes.LoadOrStore(contract, s)
	if !loaded {
		r.impls.LoadOrStore(impl, s)
	}
	return v.(*Shape), nil
}

// RegisterTo registers the constructor of the proxy implementing contract T
// in r. Registering a contract twice keeps the first shape.
func RegisterTo[T any](r *Registry, newFn func() T) (*Shape, error) {
	return r.register(reflect.TypeFor[T](), func() any { return newFn() })
}

// Register registers the constructor of the proxy implementing contract T in
// the Default registry. It panics on an invalid registration and is meant to
// be called from the init function of generated code.
//
//	func init() {
//	    proxy.Register[IUser](func() IUser { return &userProxy{} })
//	}
func Register[T any](newFn func() T) *Shape {
	s, err := RegisterTo(Default, newFn)
	if err != nil {
		panic(err)
	}
	return s
}

// NewFrom returns a new tracked instance of contract T from r.
func NewFrom[T any](r *Registry) (T, error) {
	var zero T
	contract := reflect.TypeFor[T]()
	s, ok := r.Lookup(contract)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, contract)
	}
	return s.New().(T), nil
}

// New returns a new tracked instance of contract T from the Default registry.
func New[T any]() (T, error) {
	return NewFrom[T](Default)
}
