package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/syssam/crud/schema/field"
)

const directivePrefix = "//crud:"

// Package groups the contracts declared in one Go package.
type Package struct {
	Path      string
	Name      string
	Dir       string
	Contracts []*Contract
}

// Contract is an entity interface loaded from a package.
type Contract struct {
	Name   string
	Table  string
	Pos    token.Position
	Fields []*Field
}

// Field is one getter (and optional setter) pair of a contract.
type Field struct {
	Name  string
	Type  types.Type
	Roles field.Role
	// Setter reports whether the contract declares Set<Name>.
	Setter bool
	Pos    token.Position
}

// Descriptor returns the field descriptor used at runtime.
func (f *Field) Descriptor() *field.Descriptor {
	return &field.Descriptor{Name: f.Name, Roles: f.Roles}
}

// Methods implemented by every proxy. A contract may not declare them.
var reserved = map[string]bool{
	"IsDirty":       true,
	"SetDirty":      true,
	"MarkDirty":     true,
	"Fields":        true,
	"FieldValue":    true,
	"SetFieldValue": true,
	"TableName":     true,
}

// Load loads the packages matching patterns, relative to dir, and returns
// those declaring at least one contract.
func Load(ctx context.Context, dir string, patterns ...string) ([]*Package, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load: packages %v: %w", patterns, err)
	}
	var errs []error
	for _, p := range pkgs {
		for _, e := range p.Errors {
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("load: %w", errors.Join(errs...))
	}
	var out []*Package
	for _, p := range pkgs {
		contracts, err := Extract(p.Fset, p.Types, p.Syntax)
		if err != nil {
			return nil, err
		}
		if len(contracts) == 0 {
			continue
		}
		pkg := &Package{Path: p.PkgPath, Name: p.Name, Contracts: contracts}
		if len(p.GoFiles) > 0 {
			pkg.Dir = filepath.Dir(p.GoFiles[0])
		}
		out = append(out, pkg)
	}
	return out, nil
}

// Extract returns the contracts declared in the files of a type-checked
// package, in source order.
func Extract(fset *token.FileSet, pkg *types.Package, files []*ast.File) ([]*Contract, error) {
	x := &extractor{
		fset:  fset,
		pkg:   pkg,
		roles: make(map[string]map[string]field.Role),
	}
	var entities []*entity
	for _, file := range files {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				it, ok := ts.Type.(*ast.InterfaceType)
				if !ok {
					continue
				}
				roles, err := x.methodRoles(ts.Name.Name, it)
				if err != nil {
					return nil, err
				}
				x.roles[ts.Name.Name] = roles
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				e, err := x.entity(ts, it, doc)
				if err != nil {
					return nil, err
				}
				if e != nil {
					entities = append(entities, e)
				}
			}
		}
	}
	contracts := make([]*Contract, 0, len(entities))
	for _, e := range entities {
		c, err := x.contract(e)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

type entity struct {
	spec  *ast.TypeSpec
	iface *ast.InterfaceType
	table string
}

type method struct {
	fn    *types.Func
	roles field.Role
}

type extractor struct {
	fset *token.FileSet
	pkg  *types.Package
	// roles holds the directive roles of every interface method in the
	// package, keyed by interface then method name.
	roles map[string]map[string]field.Role
}

func (x *extractor) errorf(pos token.Pos, contract, method, format string, args ...any) error {
	return &Error{
		Pos:      x.fset.Position(pos),
		Contract: contract,
		Method:   method,
		Message:  fmt.Sprintf(format, args...),
	}
}

// entity reads the type-level directives. It returns nil for interfaces
// that are not entities.
func (x *extractor) entity(ts *ast.TypeSpec, it *ast.InterfaceType, doc *ast.CommentGroup) (*entity, error) {
	var (
		e      = &entity{spec: ts, iface: it}
		marked bool
	)
	for _, d := range directives(doc) {
		name, arg, _ := strings.Cut(d, " ")
		arg = strings.TrimSpace(arg)
		switch name {
		case "entity":
			marked = true
		case "table":
			if arg == "" {
				return nil, x.errorf(ts.Pos(), ts.Name.Name, "", "table directive requires a name")
			}
			e.table = arg
		default:
			return nil, x.errorf(ts.Pos(), ts.Name.Name, "", "unknown type directive %q", name)
		}
	}
	if !marked {
		if e.table != "" {
			return nil, x.errorf(ts.Pos(), ts.Name.Name, "", "table directive without entity directive")
		}
		return nil, nil
	}
	if ts.TypeParams != nil && ts.TypeParams.NumFields() > 0 {
		return nil, x.errorf(ts.Pos(), ts.Name.Name, "", "generic contracts are not supported")
	}
	return e, nil
}

func (x *extractor) methodRoles(iface string, it *ast.InterfaceType) (map[string]field.Role, error) {
	roles := make(map[string]field.Role)
	for _, f := range it.Methods.List {
		for _, n := range f.Names {
			for _, d := range directives(f.Doc) {
				r, ok := field.ParseRole(d)
				if !ok {
					return nil, x.errorf(n.Pos(), iface, n.Name, "unknown field directive %q", d)
				}
				roles[n.Name] |= r
			}
		}
	}
	return roles, nil
}

func (x *extractor) contract(e *entity) (*Contract, error) {
	name := e.spec.Name.Name
	obj := x.pkg.Scope().Lookup(name)
	if obj == nil {
		return nil, x.errorf(e.spec.Pos(), name, "", "type not found in package %s", x.pkg.Path())
	}
	iface, ok := obj.Type().Underlying().(*types.Interface)
	if !ok {
		return nil, x.errorf(e.spec.Pos(), name, "", "not an interface type")
	}
	methods, err := x.methods(name, e.iface, iface)
	if err != nil {
		return nil, err
	}
	c := &Contract{
		Name:  name,
		Table: e.table,
		Pos:   x.fset.Position(e.spec.Pos()),
	}
	var (
		byName  = make(map[string]*Field)
		setters []method
	)
	for _, m := range methods {
		mname := m.fn.Name()
		if reserved[mname] {
			return nil, x.errorf(m.fn.Pos(), name, mname, "name is reserved for the proxy")
		}
		sig := m.fn.Type().(*types.Signature)
		switch {
		case sig.Params().Len() == 0 && sig.Results().Len() == 1:
			f := &Field{
				Name:  mname,
				Type:  sig.Results().At(0).Type(),
				Roles: m.roles,
				Pos:   x.fset.Position(m.fn.Pos()),
			}
			byName[mname] = f
			c.Fields = append(c.Fields, f)
		case strings.HasPrefix(mname, "Set") && len(mname) > len("Set") &&
			sig.Params().Len() == 1 && sig.Results().Len() == 0 && !sig.Variadic():
			setters = append(setters, m)
		default:
			return nil, x.errorf(m.fn.Pos(), name, mname, "method is neither a getter nor a setter")
		}
	}
	for _, m := range setters {
		mname := m.fn.Name()
		f, ok := byName[strings.TrimPrefix(mname, "Set")]
		if !ok {
			return nil, x.errorf(m.fn.Pos(), name, mname, "setter has no matching getter")
		}
		pt := m.fn.Type().(*types.Signature).Params().At(0).Type()
		if !types.Identical(pt, f.Type) {
			return nil, x.errorf(m.fn.Pos(), name, mname, "setter takes %s, getter returns %s", pt, f.Type)
		}
		f.Setter = true
		f.Roles |= m.roles
	}
	if len(c.Fields) == 0 {
		return nil, x.errorf(e.spec.Pos(), name, "", "contract declares no fields")
	}
	var tokens []string
	for _, f := range c.Fields {
		if f.Roles.Has(field.RoleConcurrencyToken) {
			tokens = append(tokens, f.Name)
		}
	}
	if len(tokens) > 1 {
		return nil, x.errorf(e.spec.Pos(), name, "", "more than one concurrency token: %s", strings.Join(tokens, ", "))
	}
	return c, nil
}

// methods returns the methods of the contract in declaration order, with
// embedded interfaces expanded in place.
func (x *extractor) methods(name string, it *ast.InterfaceType, iface *types.Interface) ([]method, error) {
	var (
		out      []method
		seen     = make(map[string]int)
		embedded int
	)
	add := func(fn *types.Func, roles field.Role) {
		if i, ok := seen[fn.Name()]; ok {
			out[i].roles |= roles
			return
		}
		seen[fn.Name()] = len(out)
		out = append(out, method{fn: fn, roles: roles})
	}
	for _, f := range it.Methods.List {
		if len(f.Names) == 0 {
			if embedded >= iface.NumEmbeddeds() {
				return nil, x.errorf(f.Pos(), name, "", "unsupported embedded element")
			}
			et := types.Unalias(iface.EmbeddedType(embedded))
			embedded++
			ei, ok := et.Underlying().(*types.Interface)
			if !ok || ei.IsImplicit() {
				return nil, x.errorf(f.Pos(), name, "", "embedded %s is not an interface", et)
			}
			var inherited map[string]field.Role
			if n, ok := et.(*types.Named); ok && n.Obj().Pkg() == x.pkg {
				inherited = x.roles[n.Obj().Name()]
			}
			for i := range ei.NumMethods() {
				m := ei.Method(i)
				add(m, inherited[m.Name()])
			}
			continue
		}
		for _, n := range f.Names {
			fn := lookup(iface, n.Name)
			if fn == nil {
				return nil, x.errorf(n.Pos(), name, n.Name, "method not found in type information")
			}
			add(fn, x.roles[name][n.Name])
		}
	}
	return out, nil
}

func lookup(iface *types.Interface, name string) *types.Func {
	for i := range iface.NumMethods() {
		if m := iface.Method(i); m.Name() == name {
			return m
		}
	}
	return nil
}

// directives returns the crud directives of a comment group without their
// prefix. Directive lines are not part of CommentGroup.Text.
func directives(cg *ast.CommentGroup) []string {
	if cg == nil {
		return nil
	}
	var out []string
	for _, c := range cg.List {
		if d, ok := strings.CutPrefix(c.Text, directivePrefix); ok {
			out = append(out, strings.TrimSpace(d))
		}
	}
	return out
}
