package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Change kinds reported by Watch.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// EventCallback is called for every Markdown change under the watched root.
// path is relative to the root and uses forward slashes.
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on root and reports Markdown changes until
// ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list and their Markdown files reported as created. fsnotify fires Rename
// on the old path only; it is reported as deleted and the new path arrives
// as a separate create.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	emit := func(kind, abs string) {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return
		}
		rel = filepath.ToSlash(rel)
		logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", kind))
		if cb != nil {
			cb(kind, rel)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories: add to watcher and report their files.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					walkMarkdown(absPath, func(p string) { emit(ChangeCreated, p) })
					continue
				}
			}

			if !isMarkdownPath(absPath) {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				emit(ChangeCreated, absPath)
			case ev.Op&fsnotify.Write != 0:
				emit(ChangeUpdated, absPath)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				emit(ChangeDeleted, absPath)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func isMarkdownPath(p string) bool {
	return strings.HasSuffix(p, ".md") && !strings.HasPrefix(filepath.Base(p), ".")
}

// walkMarkdown calls fn for every Markdown file below dir.
func walkMarkdown(dir string, fn func(string)) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isMarkdownPath(p) {
			return nil
		}
		fn(p)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
// Hidden directories such as .git are skipped.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
