package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by NewConfig.
const (
	DefaultHeader     = "Code generated by crudgen. DO NOT EDIT."
	DefaultOutput     = "crud_proxy.go"
	DefaultConfigFile = "crudgen.yaml"
)

// Config holds the generator settings. It is read from crudgen.yaml and
// adjusted with options.
//
//	packages:
//	  - ./models/...
//	header: Code generated by crudgen. DO NOT EDIT.
//	workers: 4
//	output: crud_proxy.go
type Config struct {
	// Packages are the package patterns searched for contracts.
	Packages []string `yaml:"packages"`
	// Header is the comment written at the top of every generated file.
	Header string `yaml:"header"`
	// Workers bounds the number of packages generated in parallel.
	Workers int `yaml:"workers"`
	// Output is the name of the file written into each package directory.
	Output string `yaml:"output"`
	// Dir is the directory package patterns are resolved against.
	Dir string `yaml:"-"`
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		if strings.TrimSpace(header) == "" {
			return invalidOption("header", nil, "cannot be empty")
		}
		c.Header = header
		return nil
	}
}

// WithWorkers sets the number of packages generated in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return invalidOption("workers", n, "must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithOutput sets the name of the generated file.
func WithOutput(name string) Option {
	return func(c *Config) error {
		if err := validOutput(name); err != nil {
			return err
		}
		c.Output = name
		return nil
	}
}

// WithPackages replaces the package patterns to load.
func WithPackages(patterns ...string) Option {
	return func(c *Config) error {
		if len(patterns) == 0 {
			return invalidOption("packages", nil, "at least one pattern is required")
		}
		c.Packages = patterns
		return nil
	}
}

// WithDir sets the directory package patterns are resolved against.
func WithDir(dir string) Option {
	return func(c *Config) error {
		c.Dir = dir
		return nil
	}
}

// NewConfig creates a Config with default settings and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Packages: []string{"."},
		Header:   DefaultHeader,
		Workers:  runtime.GOMAXPROCS(0),
		Output:   DefaultOutput,
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadConfig reads a YAML configuration file over the defaults, then
// applies opts. Package patterns resolve against the directory of the file.
// A missing file is not an error when path is the default file name.
func ReadConfig(path string, opts ...Option) (*Config, error) {
	c, err := NewConfig()
	if err != nil {
		return nil, err
	}
	c.Dir = filepath.Dir(path)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && filepath.Base(path) == DefaultConfigFile:
	case err != nil:
		return nil, fmt.Errorf("crudgen: read config: %w", err)
	default:
		if err := c.decode(data); err != nil {
			if oerr := (*OptionError)(nil); errors.As(err, &oerr) {
				oerr.File = path
				return nil, oerr
			}
			return nil, fmt.Errorf("crudgen: parse config %s: %w", path, err)
		}
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decode(data []byte) error {
	var file Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	var opts []Option
	if len(file.Packages) > 0 {
		opts = append(opts, WithPackages(file.Packages...))
	}
	if file.Header != "" {
		opts = append(opts, WithHeader(file.Header))
	}
	if file.Workers != 0 {
		opts = append(opts, WithWorkers(file.Workers))
	}
	if file.Output != "" {
		opts = append(opts, WithOutput(file.Output))
	}
	return c.Apply(opts...)
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

func validOutput(name string) error {
	switch {
	case name == "":
		return invalidOption("output", nil, "cannot be empty")
	case filepath.Base(name) != name:
		return invalidOption("output", name, "must be a file name, not a path")
	case !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go"):
		return invalidOption("output", name, "must be a non-test .go file")
	}
	return nil
}
