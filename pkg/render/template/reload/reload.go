// Package reload clears a template engine's cache when files under its
// template directory change, so edited templates show up without a restart.
package reload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Resetter drops cached templates. *pongo.Engine satisfies it.
type Resetter interface {
	Reset()
}

type Options struct {
	// Debounce is how long the directory must stay quiet before Reset runs.
	Debounce time.Duration
	// Extension limits events to template files. Empty matches every file.
	Extension string
	Logger    *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Debounce:  250 * time.Millisecond,
		Extension: ".tpl",
		Logger:    zap.NewNop(),
	}
}

func WithDebounce(d time.Duration) OptionFn {
	return func(o *Options) {
		if o == nil || d <= 0 {
			return
		}
		o.Debounce = d
	}
}

func WithExtension(ext string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		o.Extension = ext
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil || logger == nil {
			return
		}
		o.Logger = logger
	}
}

// Watcher watches a directory tree and resets its target after changes
// settle.
type Watcher struct {
	target  Resetter
	root    string
	opts    Options
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	reloads int
	running bool
}

// New watches root and every directory below it. The watch starts
// collecting events immediately; Run must be called to act on them.
func New(target Resetter, root string, fns ...OptionFn) (*Watcher, error) {
	if target == nil {
		return nil, errors.New("reload: missing target")
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("reload: missing directory")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reload: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reload: %s is not a directory", root)
	}

	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("reload: new watcher: %w", err)
	}
	w := &Watcher{
		target:  target,
		root:    root,
		opts:    opts,
		watcher: fsw,
	}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done, then closes the watcher. It returns
// nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("reload: already running")
	}
	w.running = true
	w.mu.Unlock()

	defer w.watcher.Close()

	w.opts.Logger.Info("watching templates", zap.String("dir", w.root))

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("template watcher error", zap.Error(err))

		case <-timer.C:
			w.target.Reset()
			w.mu.Lock()
			w.reloads++
			w.mu.Unlock()
			w.opts.Logger.Info("templates reloaded", zap.String("dir", w.root))
		}
	}
}

// Reloads reports how many times the target has been reset.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// handleEvent reports whether event should schedule a reset.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.opts.Logger.Warn("watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return false
		}
	}
	if w.opts.Extension != "" && filepath.Ext(event.Name) != w.opts.Extension {
		return false
	}
	w.opts.Logger.Debug("template changed",
		zap.String("file", event.Name),
		zap.String("op", event.Op.String()),
	)
	return true
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("reload: watch %s: %w", path, err)
		}
		return nil
	})
}
