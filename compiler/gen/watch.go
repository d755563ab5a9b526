package gen

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after a change before the proxies are
// generated again.
const DefaultDebounce = 200 * time.Millisecond

// Watch generates the proxies, then generates them again after every change
// to a Go source file under the configured directory, until ctx is done.
// Generation errors are logged and do not stop the watch.
func (g *Generator) Watch(ctx context.Context) error {
	return g.watch(ctx, g.Run)
}

func (g *Generator) watch(ctx context.Context, run func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("gen: create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	root := g.cfg.Dir
	if root == "" {
		root = "."
	}
	if err := addDirs(w, root); err != nil {
		return fmt.Errorf("gen: watch %s: %w", root, err)
	}
	g.log.Info("watching for changes", "dir", root)
	g.runLogged(ctx, run)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && isDir(ev.Name) {
				if err := addDirs(w, ev.Name); err != nil {
					g.log.Warn("watch directory", "dir", ev.Name, "error", err)
				}
				continue
			}
			if !g.triggers(ev) {
				continue
			}
			g.log.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(g.debounce)
			} else {
				timer.Reset(g.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			g.runLogged(ctx, run)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			g.log.Warn("watcher error", "error", err)
		}
	}
}

func (g *Generator) runLogged(ctx context.Context, run func(context.Context) error) {
	if err := run(ctx); err != nil && ctx.Err() == nil {
		g.log.Error("generation failed", "error", err)
	}
}

// triggers reports whether ev changes a hand-written Go source file.
// Writes of the generated file itself are ignored.
func (g *Generator) triggers(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		name != g.cfg.Output
}

// addDirs adds dir and its subdirectories to w, skipping hidden, vendor and
// testdata directories.
func addDirs(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir {
			name := d.Name()
			if strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata" {
				return filepath.SkipDir
			}
		}
		return w.Add(path)
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
