package gen

import (
	"context"
	"go/types"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/crud/compiler/load"
	"github.com/syssam/crud/schema/field"
)

const (
	proxyPkg  = "github.com/syssam/crud/proxy"
	schemaPkg = "github.com/syssam/crud/schema"
	fieldPkg  = "github.com/syssam/crud/schema/field"
)

// Generator writes one proxy file into every package declaring contracts.
type Generator struct {
	cfg      *Config
	log      *slog.Logger
	debounce time.Duration
	create   func(path string) (io.WriteCloser, error)
}

func createFile(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// NewGenerator creates a generator for the given configuration.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{cfg: cfg, log: slog.Default(), debounce: DefaultDebounce, create: createFile}
}

// WithLogger sets the logger reporting generation progress.
func (g *Generator) WithLogger(l *slog.Logger) *Generator {
	if l != nil {
		g.log = l
	}
	return g
}

// Run loads the configured packages and generates their proxies.
func (g *Generator) Run(ctx context.Context) error {
	g.log.Debug("loading packages", "dir", g.cfg.Dir, "patterns", g.cfg.Packages)
	pkgs, err := load.Load(ctx, g.cfg.Dir, g.cfg.Packages...)
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		g.log.Warn("no contracts found", "patterns", g.cfg.Packages)
		return nil
	}
	return g.Generate(ctx, pkgs)
}

// Generate writes the proxy files of pkgs in parallel.
func (g *Generator) Generate(ctx context.Context, pkgs []*load.Package) error {
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(max(g.cfg.Workers, 1))
	for _, pkg := range pkgs {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(pkg.Dir, g.cfg.Output)
			if err := g.writeFile(g.File(pkg), path); err != nil {
				return &WriteError{Package: pkg.Path, Path: path, Err: err}
			}
			g.log.Info("proxies written", "package", pkg.Path, "contracts", len(pkg.Contracts), "file", path)
			return nil
		})
	}
	return errg.Wait()
}

// File returns the generated source of the proxies of pkg.
func (g *Generator) File(pkg *load.Package) *jen.File {
	f := g.newFile(pkg)
	f.Func().Id("init").Params().BlockFunc(func(grp *jen.Group) {
		for _, c := range pkg.Contracts {
			grp.Qual(proxyPkg, "Register").Types(jen.Id(c.Name)).Call(
				jen.Func().Params().Id(c.Name).Block(
					jen.Return(jen.Op("&").Id(proxyName(c.Name)).Values()),
				),
			)
		}
	})
	for _, c := range pkg.Contracts {
		genProxy(f, c)
	}
	return f
}

// writeFile renders f into path. A failed close is reported when rendering
// succeeded.
func (g *Generator) writeFile(f *jen.File, path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := g.create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return f.Render(out)
}

// newFile creates a new Jennifer file with the header comment.
func (g *Generator) newFile(pkg *load.Package) *jen.File {
	f := jen.NewFilePathName(pkg.Path, pkg.Name)
	f.HeaderComment(g.cfg.Header)
	f.ImportName(proxyPkg, "proxy")
	f.ImportName(schemaPkg, "schema")
	f.ImportName(fieldPkg, "field")
	return f
}

var roleBuilders = []struct {
	role   field.Role
	method string
}{
	{field.RoleIdentity, "Identity"},
	{field.RoleKey, "Key"},
	{field.RoleComputed, "Computed"},
	{field.RoleConcurrencyToken, "ConcurrencyToken"},
	{field.RoleNonWritable, "NonWritable"},
}

func genProxy(f *jen.File, c *load.Contract) {
	var (
		name  = proxyName(c.Name)
		names = make([]string, len(c.Fields))
	)
	for i, fd := range c.Fields {
		names[i] = fd.Name
	}
	slots := slotNames(names)
	recv := func() *jen.Statement { return jen.Id("p").Op("*").Id(name) }

	f.Commentf("%s is the change-tracking proxy of %s.", name, c.Name)
	f.Type().Id(name).StructFunc(func(grp *jen.Group) {
		grp.Qual(proxyPkg, "State")
		for i, fd := range c.Fields {
			grp.Id(slots[i]).Add(typeCode(fd.Type))
		}
	})

	for i, fd := range c.Fields {
		f.Func().Params(recv()).Id(fd.Name).Params().Add(typeCode(fd.Type)).Block(
			jen.Return(jen.Id("p").Dot(slots[i])),
		)
		if !fd.Setter {
			continue
		}
		f.Func().Params(recv()).Id("Set"+fd.Name).Params(jen.Id("v").Add(typeCode(fd.Type))).Block(
			jen.Id("p").Dot(slots[i]).Op("=").Id("v"),
			jen.Id("p").Dot("MarkDirty").Call(),
		)
	}

	f.Comment("Fields implements schema.Schema.")
	f.Func().Params(recv()).Id("Fields").Params().Index().Qual(fieldPkg, "Field").Block(
		jen.Return(jen.Index().Qual(fieldPkg, "Field").CustomFunc(jen.Options{
			Open:      "{",
			Close:     "}",
			Separator: ",",
			Multi:     true,
		}, func(grp *jen.Group) {
			for _, fd := range c.Fields {
				b := jen.Qual(fieldPkg, "New").Call(jen.Lit(fd.Name))
				for _, rb := range roleBuilders {
					if fd.Roles.Has(rb.role) {
						b = b.Dot(rb.method).Call()
					}
				}
				grp.Add(b)
			}
		})),
	)

	if c.Table != "" {
		f.Comment("TableName implements schema.TableNamer.")
		f.Func().Params(recv()).Id("TableName").Params().String().Block(
			jen.Return(jen.Lit(c.Table)),
		)
	}

	f.Comment("FieldValue implements schema.Accessor.")
	f.Func().Params(recv()).Id("FieldValue").Params(jen.Id("name").String()).Params(jen.Id("any"), jen.Bool()).Block(
		jen.Switch(jen.Id("name")).BlockFunc(func(grp *jen.Group) {
			for i, fd := range c.Fields {
				grp.Case(jen.Lit(fd.Name)).Block(jen.Return(jen.Id("p").Dot(slots[i]), jen.True()))
			}
		}),
		jen.Return(jen.Nil(), jen.False()),
	)

	f.Comment("SetFieldValue implements schema.Accessor.")
	f.Func().Params(recv()).Id("SetFieldValue").Params(jen.Id("name").String(), jen.Id("value").Id("any")).Error().Block(
		jen.Switch(jen.Id("name")).BlockFunc(func(grp *jen.Group) {
			for i, fd := range c.Fields {
				store := jen.Id("p").Dot(slots[i]).Op("=").Id("v")
				if fd.Setter {
					store = jen.Id("p").Dot("Set" + fd.Name).Call(jen.Id("v"))
				}
				grp.Case(jen.Lit(fd.Name)).Block(
					jen.List(jen.Id("v"), jen.Err()).Op(":=").Qual(schemaPkg, "Convert").Types(typeCode(fd.Type)).Call(jen.Id("value")),
					jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
					store,
				)
			}
			grp.Default().Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(c.Name+": unknown field %q"), jen.Id("name"))),
			)
		}),
		jen.Return(jen.Nil()),
	)
}

// typeCode renders a type-checked Go type, qualifying named types with
// their package path.
func typeCode(t types.Type) jen.Code {
	switch t := t.(type) {
	case *types.Basic:
		return jen.Id(t.Name())
	case *types.Alias:
		return namedCode(t.Obj(), t.TypeArgs())
	case *types.Named:
		return namedCode(t.Obj(), t.TypeArgs())
	case *types.Pointer:
		return jen.Op("*").Add(typeCode(t.Elem()))
	case *types.Slice:
		return jen.Index().Add(typeCode(t.Elem()))
	case *types.Array:
		return jen.Index(jen.Lit(int(t.Len()))).Add(typeCode(t.Elem()))
	case *types.Map:
		return jen.Map(typeCode(t.Key())).Add(typeCode(t.Elem()))
	case *types.Interface:
		if t.Empty() {
			return jen.Id("any")
		}
	}
	return jen.Id(types.TypeString(t, nil))
}

func namedCode(obj *types.TypeName, args *types.TypeList) jen.Code {
	var s *jen.Statement
	if obj.Pkg() == nil {
		s = jen.Id(obj.Name())
	} else {
		s = jen.Qual(obj.Pkg().Path(), obj.Name())
	}
	if args.Len() > 0 {
		codes := make([]jen.Code, args.Len())
		for i := range args.Len() {
			codes[i] = typeCode(args.At(i))
		}
		s = s.Types(codes...)
	}
	return s
}
