package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last change before re-running.
const DefaultDebounce = 500 * time.Millisecond

// Watch runs the generator once, then again after every burst of changes to
// .txt files in the content directory or to the base dataset, until ctx is
// done. Run failures are logged and do not stop the watch.
func (g *Generator) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ingest: watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(g.cfg.ContentDir); err != nil {
		return fmt.Errorf("ingest: watch %s: %w", g.cfg.ContentDir, err)
	}
	baseDir := filepath.Dir(g.cfg.BasePath)
	if filepath.Clean(baseDir) != filepath.Clean(g.cfg.ContentDir) {
		if err := watcher.Add(baseDir); err != nil {
			return fmt.Errorf("ingest: watch %s: %w", baseDir, err)
		}
	}

	g.runLogged(ctx)

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !g.relevant(ev) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.log.Warn().Err(err).Msg("watch error")
		case <-timer.C:
			g.runLogged(ctx)
		}
	}
}

func (g *Generator) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if filepath.Clean(ev.Name) == filepath.Clean(g.cfg.BasePath) {
		return true
	}
	return filepath.Clean(filepath.Dir(ev.Name)) == filepath.Clean(g.cfg.ContentDir) &&
		strings.EqualFold(filepath.Ext(ev.Name), ".txt")
}

func (g *Generator) runLogged(ctx context.Context) {
	if _, err := g.Run(ctx); err != nil && ctx.Err() == nil {
		g.log.Error().Err(err).Msg("generate failed")
	}
}
