package catalog

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"tempo/internal/logging"
)

// Watch monitors the catalog file and calls onChange with the newly loaded
// catalog each time it is rewritten. It blocks until ctx is cancelled.
//
// A reload that fails to parse or validate is logged and skipped, so the
// previously delivered catalog stays active. Editors that save atomically
// replace the inode; the watch is re-added after each reload to follow the
// new file.
func Watch(ctx context.Context, logger *slog.Logger, path string, onChange func(*Catalog)) error {
	log := logging.NewComponentLogger(logger, "catalog")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	log.Info("watching catalog for changes", slog.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			loaded, err := Load(path)
			if err != nil {
				log.Warn("catalog reload failed, keeping previous catalog",
					slog.String("path", path),
					logging.Error(err))
				continue
			}

			log.Info("catalog reloaded",
				slog.String("path", path),
				slog.Int("sources", len(loaded.Sources)))
			onChange(loaded)

			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("catalog watcher error", logging.Error(err))
		}
	}
}
