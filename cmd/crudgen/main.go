// Command crudgen generates change-tracking proxies for entity contracts.
//
//	crudgen ./models/...
//	crudgen --config crudgen.yaml --verbose
//	crudgen --watch ./models
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/syssam/crud/compiler/gen"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// rootOptions holds the command flags.
type rootOptions struct {
	config  string
	header  string
	output  string
	workers int
	verbose bool
	watch   bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "crudgen [packages...]",
		Short: "Generate change-tracking proxies for entity contracts",
		Long: `crudgen loads the given packages, finds interfaces annotated with
//crud:entity and writes a proxy file into each package declaring them.

Packages default to the list in the config file, or "." without one.
Flags override config file values. With --watch, proxies are generated
again whenever a Go file under the config directory changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.config, "config", "c", gen.DefaultConfigFile, "config file")
	cmd.Flags().StringVar(&opts.header, "header", "", "header comment of generated files")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "name of the generated file in each package")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "packages generated in parallel")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "regenerate on source changes until interrupted")
	return cmd
}

func run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	var gopts []gen.Option
	if len(args) > 0 {
		// Patterns given on the command line resolve against the working directory.
		gopts = append(gopts, gen.WithPackages(args...), gen.WithDir(""))
	}
	flags := cmd.Flags()
	if flags.Changed("header") {
		gopts = append(gopts, gen.WithHeader(opts.header))
	}
	if flags.Changed("output") {
		gopts = append(gopts, gen.WithOutput(opts.output))
	}
	if flags.Changed("workers") {
		gopts = append(gopts, gen.WithWorkers(opts.workers))
	}
	cfg, err := gen.ReadConfig(opts.config, gopts...)
	if err != nil {
		return err
	}
	log.Debug("configuration", "packages", cfg.Packages, "output", cfg.Output, "workers", cfg.Workers)
	g := gen.NewGenerator(cfg).WithLogger(log)
	if opts.watch {
		return g.Watch(cmd.Context())
	}
	return g.Run(cmd.Context())
}
