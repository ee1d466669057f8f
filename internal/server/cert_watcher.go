package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"careercoach/internal/errors"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounceDelay = 500 * time.Millisecond

// CertWatcher reloads certificates when their files change. Bursts of
// events within the debounce delay trigger one reload.
type CertWatcher struct {
	files    []string
	debounce time.Duration
	reload   func(context.Context) error
	logger   *errors.Logger
}

// NewCertWatcher watches the non-empty paths in files.
func NewCertWatcher(files []string, debounce time.Duration, reload func(context.Context) error, logger *errors.Logger) *CertWatcher {
	if debounce <= 0 {
		debounce = defaultDebounceDelay
	}
	var watched []string
	for _, f := range files {
		if f != "" {
			watched = append(watched, filepath.Clean(f))
		}
	}
	return &CertWatcher{
		files:    watched,
		debounce: debounce,
		reload:   reload,
		logger:   logger.With("component", "cert_watcher"),
	}
}

// Files returns the watched paths.
func (cw *CertWatcher) Files() []string {
	return slices.Clone(cw.files)
}

// Run watches until ctx is done.
func (cw *CertWatcher) Run(ctx context.Context) error {
	if len(cw.files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Directories are watched too so atomic renames are seen.
	dirs := map[string]bool{}
	for _, f := range cw.files {
		if err := watcher.Add(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to watch file %s: %w", f, err)
		}
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			cw.logger.Warn("Failed to watch directory for atomic writes", "directory", dir, "error", err)
		}
	}
	cw.logger.Info("Certificate file watcher started", "files", cw.files, "debounce", cw.debounce)

	timer := time.NewTimer(cw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if cw.relevant(event) {
				timer.Reset(cw.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cw.logger.LogError(err, "File watcher error")
		case <-timer.C:
			cw.logger.Info("Certificate files changed, reloading")
			// Renames drop the file watch; re-adding is harmless when it is still there.
			for _, f := range cw.files {
				_ = watcher.Add(f)
			}
			if err := cw.reload(ctx); err != nil {
				cw.logger.Debug("Certificate reload after file change failed", "error", err)
			}
		case <-ctx.Done():
			cw.logger.Info("Certificate file watcher stopped")
			return nil
		}
	}
}

func (cw *CertWatcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	return slices.ContainsFunc(cw.files, func(f string) bool {
		return f == name || filepath.Base(f) == filepath.Base(name)
	})
}
