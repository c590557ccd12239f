// Package watcher watches inbox directories for outfit images with fsnotify. New or
// rewritten images are handed to a Sink after a debounce; removed or renamed-away
// images are reported right away.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Sink receives image changes.
type Sink interface {
	// Upsert is called for an image that appeared or changed. force is set for live
	// events, so a rewritten image is analyzed again; the startup sync passes false.
	Upsert(ctx context.Context, path string, force bool)
	// Remove is called for an image that disappeared.
	Remove(ctx context.Context, path string)
}

// Options configures which directories and files are watched.
type Options struct {
	Directories []string
	Extensions  []string
	Recursive   bool
	Debounce    time.Duration
}

// Watcher watches inbox directories.
type Watcher struct {
	opts    Options
	sink    Sink
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	ctx     context.Context

	mu       sync.Mutex
	pending  map[string]*time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher over opts.Directories. Empty Extensions watches every file.
func New(opts Options, sink Sink, options ...Option) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	w := &Watcher{
		opts:    opts,
		sink:    sink,
		logger:  zap.NewNop(),
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Start begins watching. Missing directories are created. It returns once the watches
// are in place; events are processed until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range w.opts.Directories {
		if err := w.watchTree(fw, dir); err != nil {
			_ = fw.Close()
			return err
		}
	}
	w.watcher = fw
	w.ctx = ctx
	w.started = true
	w.logger.Info("watching inbox directories",
		zap.Strings("directories", w.opts.Directories),
		zap.Strings("extensions", w.opts.Extensions),
		zap.Bool("recursive", w.opts.Recursive))
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancel(path)
		if w.matchExtension(path) {
			w.sink.Remove(w.ctx, path)
		}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
		if w.matchExtension(path) {
			w.schedule(path)
		}
	}
}

// handleNewDirectory watches a directory created under a recursive root and picks up
// the images already inside it.
func (w *Watcher) handleNewDirectory(dir string) {
	if !w.opts.Recursive {
		return
	}
	w.mu.Lock()
	fw := w.watcher
	w.mu.Unlock()
	if fw == nil {
		return
	}
	if err := w.watchTree(fw, dir); err != nil {
		w.logger.Warn("failed to watch new directory", zap.String("path", dir), zap.Error(err))
		return
	}
	w.syncDirectory(dir, true)
}

func (w *Watcher) watchTree(fw *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	if !w.opts.Recursive {
		return fw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) matchExtension(path string) bool {
	return matchExtension(path, w.opts.Extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// schedule hands path to the sink once no further events arrive for it within the
// debounce interval. Image writes usually arrive as several events.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		ctx := w.ctx
		w.mu.Unlock()
		w.sink.Upsert(ctx, path, true)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) syncDirectory(root string, force bool) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if w.matchExtension(path) {
			w.sink.Upsert(w.ctx, path, force)
		}
		return nil
	})
}

// SyncExisting hands every image already in the watched directories to the sink.
// Call it after Start to pick up images added while nothing was watching.
func (w *Watcher) SyncExisting() {
	for _, dir := range w.opts.Directories {
		w.logger.Debug("syncing inbox directory", zap.String("path", dir))
		w.syncDirectory(filepath.Clean(dir), false)
	}
}

// Directories returns the watched inbox directories.
func (w *Watcher) Directories() []string {
	return append([]string(nil), w.opts.Directories...)
}

// Stop stops the watcher and releases resources. Pending debounced images are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
