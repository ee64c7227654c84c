package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/arbitra/pkg/core"
)

// DefaultWatchBuffer is the capacity of the channel returned by Watch.
const DefaultWatchBuffer = 64

// Watch reports changes to documents whose name matches pattern (doublestar
// syntax, "*" or "" for every document). The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	events := make(chan core.Event, DefaultWatchBuffer)
	w := newWatchWorker(s, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

type watchWorker struct {
	*worker.BaseWorker
	store   *Store
	pattern string
	events  chan<- core.Event
	watcher *fsnotify.Watcher
	known   map[string]bool
	cancel  context.CancelFunc
}

// newWatchWorker builds a worker that owns events and closes it on exit.
func newWatchWorker(s *Store, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("store-watcher"),
		store:      s,
		pattern:    pattern,
		events:     events,
		known:      make(map[string]bool),
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.store.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.store.Path, err)
	}
	w.seedKnown()

	w.watcher = watcher
	w.store.trackWatcher(1)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	if err := w.StartFunc(runCtx, w.run); err != nil {
		cancel()
		w.store.trackWatcher(-1)
		_ = watcher.Close()
		return err
	}
	return nil
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

// seedKnown records documents that exist before watching starts, so that an
// atomic replace of one of them is reported as a modification.
func (w *watchWorker) seedKnown() {
	entries, err := os.ReadDir(w.store.Path)
	if err != nil {
		return
	}
	for _, e := range entries {
		if name, ok := documentName(e.Name()); ok {
			w.known[name] = true
		}
	}
}

// documentName maps a file name to its logical document name.
func documentName(file string) (string, bool) {
	base := filepath.Base(file)
	if strings.HasPrefix(base, TempFilePrefix) || filepath.Ext(base) != Extension {
		return "", false
	}
	return strings.TrimSuffix(base, Extension), true
}

// translate maps a filesystem event onto a document event.
func (w *watchWorker) translate(event fsnotify.Event) (core.Event, bool) {
	name, ok := documentName(event.Name)
	if !ok {
		return core.Event{}, false
	}
	if match, err := doublestar.Match(w.pattern, name); err != nil || !match {
		return core.Event{}, false
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Create):
		eType = core.EventCreate
		if w.known[name] {
			eType = core.EventModify
		}
		w.known[name] = true
	case event.Has(fsnotify.Write):
		eType = core.EventModify
		w.known[name] = true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eType = core.EventDelete
		delete(w.known, name)
	default:
		return core.Event{}, false
	}

	return core.Event{Type: eType, Name: name, Timestamp: time.Now().Unix()}, true
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.store.logger.Enabled(ctx, slog.LevelDebug) {
				w.store.logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.store.logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	defer w.store.trackWatcher(-1)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.store.logger.Debug("fs event received", "name", event.Name, "op", event.Op.String())

			e, ok := w.translate(event)
			if !ok {
				continue
			}
			select {
			case w.events <- e:
			case <-ctx.Done():
				return nil
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.store.logger.Error("fsnotify error", "error", wErr)
			if w.store.config.ErrorHandler != nil {
				w.store.config.ErrorHandler(wErr)
			}
		}
	}
}
