package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"deckduel/internal/domain"
)

// Watcher serves the latest valid version of a catalog file. A reload that fails
// to parse keeps the previous catalog. Sessions capture Current() once at
// creation, so a reload never changes a game in progress.
type Watcher struct {
	path    string
	logger  zerolog.Logger
	current atomic.Pointer[Catalog]
}

// NewWatcher loads path and returns a watcher serving it.
func NewWatcher(path string, logger zerolog.Logger) (*Watcher, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: filepath.Clean(path), logger: logger.With().Str("component", "catalog").Logger()}
	w.current.Store(c)
	return w, nil
}

// Current returns the catalog new sessions should use.
func (w *Watcher) Current() domain.Catalog {
	return w.current.Load()
}

// Reload re-reads the file. On error the previous catalog stays in place.
func (w *Watcher) Reload() error {
	c, err := Load(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("catalog reload failed, keeping previous version")
		return err
	}
	w.current.Store(c)
	w.logger.Info().Str("path", w.path).Int("cards", c.Len()).Msg("catalog reloaded")
	return nil
}

// Run watches the catalog file until ctx is done. The parent directory is watched
// so editors that replace the file by rename are picked up.
func (w *Watcher) Run(ctx context.Context) (err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	defer func() {
		if closeErr := fw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				_ = w.Reload()
			}
		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(werr).Msg("catalog watcher error")
		}
	}
}
