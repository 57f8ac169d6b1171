package ruleset

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a ruleset file into a Store whenever it changes on disk.
type Watcher struct {
	path    string
	store   *Store
	watcher *fsnotify.Watcher
	log     zerolog.Logger
}

// NewWatcher watches the directory holding path, so editors that replace the
// file instead of writing it in place are picked up too.
func NewWatcher(path string, store *Store, logger zerolog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to resolve ruleset path: %w", err)
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:    abs,
		store:   store,
		watcher: w,
		log:     logger.With().Str("component", "ruleset").Str("path", abs).Logger(),
	}, nil
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("File watcher error")
		}
	}
}

// Close stops watching. Run closes the watcher itself; Close is for a
// watcher that never ran.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) reload() {
	rs, err := LoadFile(w.path)
	if err != nil {
		w.log.Error().Err(err).Msg("Ruleset change rejected, keeping previous version")
		return
	}
	w.store.Swap(rs)
	w.log.Info().
		Int("conditions", len(rs.Conditions)).
		Int("food_groups", len(rs.FoodGroups)).
		Msg("Ruleset reloaded")
}
