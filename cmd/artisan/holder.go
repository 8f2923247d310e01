package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	artisan "github.com/MasonMcGill/artisan"
)

// ScopeHolder serves the scope built from a types file and swaps it when the
// file changes. A failed reload keeps the previous scope.
type ScopeHolder struct {
	mu       sync.RWMutex
	scope    *artisan.Scope
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*artisan.Scope)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScopeHolder loads the initial scope from path.
func NewScopeHolder(path string, logger zerolog.Logger) (*ScopeHolder, error) {
	scope, _, err := loadScope(path)
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	return &ScopeHolder{
		scope:  scope,
		path:   absPath,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current scope.
func (h *ScopeHolder) Get() *artisan.Scope {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.scope
}

// Reload rebuilds the scope from disk.
func (h *ScopeHolder) Reload() error {
	scope, res, err := loadScope(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("types reload failed, keeping old scope")
		return err
	}
	h.mu.Lock()
	old := h.scope
	h.scope = scope
	listeners := append([]func(*artisan.Scope){}, h.onChange...)
	h.mu.Unlock()

	h.logger.Info().
		Uint64("old_scope", old.ID()).
		Uint64("new_scope", scope.ID()).
		Int("types", len(res.Types)).
		Msg("types reloaded")
	for _, fn := range listeners {
		fn(scope)
	}
	return nil
}

// OnChange registers a callback run after every successful reload.
func (h *ScopeHolder) OnChange(fn func(*artisan.Scope)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// WatchFile reloads whenever the types file is written or recreated.
func (h *ScopeHolder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory so atomic saves (rename over the file) are seen.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher
	go h.watchLoop(watcher)
	h.logger.Info().Str("path", h.path).Msg("watching types file for changes")
	return nil
}

// WatchSignals reloads on SIGHUP.
func (h *ScopeHolder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading types")
				_ = h.Reload()
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()
}

// Stop ends file and signal watching.
func (h *ScopeHolder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *ScopeHolder) watchLoop(w *fsnotify.Watcher) {
	filename := filepath.Base(h.path)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("types file changed")
				_ = h.Reload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")
		case <-h.stopCh:
			return
		}
	}
}
