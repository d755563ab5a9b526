package gen

import (
	"bytes"
	"context"
	"errors"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crud/compiler/load"
)

const modelsSrc = `package models

import "time"

type Status string

//crud:entity
//crud:table users
type IUser interface {
	//crud:identity
	Id() int64
	SetId(int64)
	Name() string
	SetName(string)
	Tags() []string
	SetTags([]string)
	Status() Status
	SetStatus(Status)
	//crud:version
	Version() int32
	SetVersion(int32)
	//crud:computed
	CreatedAt() time.Time
}

//crud:entity
type OrderLine interface {
	//crud:key
	OrderId() int64
	SetOrderId(int64)
	//crud:key
	//crud:nowrite
	Line() int
	SetLine(int)
	Type() string
	SetType(string)
}
`

func loadModels(t *testing.T, dir string) *load.Package {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "models.go", modelsSrc, parser.ParseComments)
	require.NoError(t, err)
	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	pkg, err := conf.Check("example.com/app/models", fset, []*ast.File{file}, nil)
	require.NoError(t, err)
	contracts, err := load.Extract(fset, pkg, []*ast.File{file})
	require.NoError(t, err)
	return &load.Package{
		Path:      "example.com/app/models",
		Name:      "models",
		Dir:       dir,
		Contracts: contracts,
	}
}

func newTestGenerator(t *testing.T, opts ...Option) *Generator {
	t.Helper()
	cfg, err := NewConfig(opts...)
	require.NoError(t, err)
	return NewGenerator(cfg)
}

func TestGeneratorFile(t *testing.T) {
	g := newTestGenerator(t)
	src := g.File(loadModels(t, t.TempDir())).GoString()

	_, err := parser.ParseFile(token.NewFileSet(), "crud_proxy.go", src, parser.ParseComments)
	require.NoError(t, err, src)

	t.Run("header and package", func(t *testing.T) {
		assert.Contains(t, src, "// Code generated by crudgen. DO NOT EDIT.\n\npackage models")
		assert.Contains(t, src, `"github.com/syssam/crud/proxy"`)
		assert.Contains(t, src, `"time"`)
	})

	t.Run("registration", func(t *testing.T) {
		assert.Contains(t, src, "proxy.Register[IUser](func() IUser {\n\t\treturn &userProxy{}\n\t})")
		assert.Contains(t, src, "proxy.Register[OrderLine](func() OrderLine {\n\t\treturn &orderLineProxy{}\n\t})")
	})

	t.Run("struct embeds state", func(t *testing.T) {
		assert.Contains(t, src, "type userProxy struct {\n\tproxy.State\n")
		assert.Contains(t, src, "// userProxy is the change-tracking proxy of IUser.")
	})

	t.Run("getters and setters", func(t *testing.T) {
		assert.Contains(t, src, "func (p *userProxy) Id() int64 {\n\treturn p.id\n}")
		assert.Contains(t, src, "func (p *userProxy) SetId(v int64) {\n\tp.id = v\n\tp.MarkDirty()\n}")
		assert.Contains(t, src, "func (p *userProxy) Tags() []string {")
		assert.Contains(t, src, "func (p *userProxy) SetStatus(v Status) {")
		assert.Contains(t, src, "func (p *userProxy) CreatedAt() time.Time {\n\treturn p.createdAt\n}")
		assert.NotContains(t, src, "SetCreatedAt")
		assert.Contains(t, src, "func (p *orderLineProxy) Type() string {\n\treturn p.type_\n}")
	})

	t.Run("role table", func(t *testing.T) {
		assert.Contains(t, src, `field.New("Id").Identity(),`)
		assert.Contains(t, src, `field.New("Name"),`)
		assert.Contains(t, src, `field.New("Version").ConcurrencyToken(),`)
		assert.Contains(t, src, `field.New("CreatedAt").Computed(),`)
		assert.Contains(t, src, `field.New("OrderId").Key(),`)
		assert.Contains(t, src, `field.New("Line").Key().NonWritable(),`)
	})

	t.Run("table name only when declared", func(t *testing.T) {
		assert.Contains(t, src, "func (p *userProxy) TableName() string {\n\treturn \"users\"\n}")
		assert.NotContains(t, src, "func (p *orderLineProxy) TableName()")
	})

	t.Run("accessor", func(t *testing.T) {
		assert.Contains(t, src, "func (p *userProxy) FieldValue(name string) (any, bool) {")
		assert.Contains(t, src, "case \"Name\":\n\t\treturn p.name, true")
		assert.Contains(t, src, "v, err := schema.Convert[int64](value)")
		assert.Contains(t, src, "v, err := schema.Convert[[]string](value)")
		assert.Contains(t, src, "p.SetName(v)")
		assert.Contains(t, src, "p.createdAt = v")
		assert.Contains(t, src, `return fmt.Errorf("IUser: unknown field %q", name)`)
	})
}

func TestGeneratorHeader(t *testing.T) {
	g := newTestGenerator(t, WithHeader("Code generated by make proxies. DO NOT EDIT."))
	src := g.File(loadModels(t, t.TempDir())).GoString()
	assert.Contains(t, src, "// Code generated by make proxies. DO NOT EDIT.")
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	g := newTestGenerator(t, WithOutput("models_crud.go"), WithWorkers(2))
	require.NoError(t, g.Generate(context.Background(), []*load.Package{loadModels(t, dir)}))

	data, err := os.ReadFile(filepath.Join(dir, "models_crud.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "func (p *userProxy) SetName(v string) {")
}

func TestGenerateError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	g := newTestGenerator(t)
	err := g.Generate(context.Background(), []*load.Package{loadModels(t, filepath.Join(blocker, "models"))})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.True(t, IsWriteError(err))
	assert.Contains(t, err.Error(), "write proxies of example.com/app/models")
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	err := newTestGenerator(t).Generate(ctx, []*load.Package{loadModels(t, dir)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, DefaultOutput))
}

type closeErrWriter struct {
	bytes.Buffer
	err error
}

func (w *closeErrWriter) Close() error { return w.err }

func TestGenerateCloseError(t *testing.T) {
	errClose := errors.New("disk full")
	w := &closeErrWriter{err: errClose}
	g := newTestGenerator(t)
	g.create = func(string) (io.WriteCloser, error) { return w, nil }

	err := g.Generate(context.Background(), []*load.Package{loadModels(t, t.TempDir())})
	require.Error(t, err)
	assert.ErrorIs(t, err, errClose)
	assert.True(t, IsWriteError(err))
	assert.Contains(t, w.String(), "type userProxy struct", "rendered before close")
}
